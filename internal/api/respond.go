package api

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/rcliao/temporal-events/internal/store"
	"github.com/rcliao/temporal-events/internal/validate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Count   *int   `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeList[T any](w http.ResponseWriter, items []T) {
	n := len(items)
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: items, Count: &n})
}

// statusFor maps an event store error to its HTTP status.
func statusFor(err error) int {
	var verr *validate.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrUnavailable):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeError writes err in the envelope. Server-side failures are logged and
// reported without their cause.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := envelope{Error: err.Error()}

	var verr *validate.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}

	switch status {
	case http.StatusNotFound:
		body.Error = "Event not found"
	case http.StatusServiceUnavailable:
		body.Error = "Service temporarily unavailable"
	case http.StatusInternalServerError:
		body.Error = "Internal server error"
	}
	if status >= 500 && s.logger != nil {
		s.logger.Error(logMsgRequestFailed,
			logAttrRequestID, requestIDFrom(r.Context()),
			logAttrPath, r.URL.Path,
			logAttrStatus, status,
			logAttrError, err.Error())
	}
	writeJSON(w, status, body)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Error: msg})
}
