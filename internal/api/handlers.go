package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rcliao/temporal-events/internal/store"
	"github.com/rcliao/temporal-events/internal/validate"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": s.now().UTC().Format(time.RFC3339Nano),
		"service":   ServiceName,
	})
}

var endpoints = map[string]string{
	"POST /":                                    "Create a new event",
	"GET /{id}":                                 "Get event by ID",
	"PUT /{id}":                                 "Update event",
	"DELETE /{id}":                              "Delete event",
	"GET /owner/{ownerID}?limit&offset":         "Get events by owner, newest first",
	"GET /owner/{ownerID}/search?q=query":       "Search events",
	"GET /owner/{ownerID}/type/{eventType}":     "Get events by type",
	"GET /owner/{ownerID}/date-range?start&end": "Get events by date range",
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Events Temporal Features CRUD API",
		"version":   "1.0.0",
		"endpoints": endpoints,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodePayload(w, r)
	if !ok {
		return
	}
	ev, err := s.events.Create(r.Context(), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, ev)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	ev, err := s.events.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ev)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	payload, ok := s.decodePayload(w, r)
	if !ok {
		return
	}
	ev, err := s.events.Update(r.Context(), r.PathValue("id"), payload)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ev)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.events.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}

func (s *Server) handleListByOwner(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events, err := s.events.ListByOwner(r.Context(), store.ListParams{
		OwnerID: r.PathValue("ownerID"),
		Limit:   limit,
		Offset:  offset,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, events)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events, err := s.events.Search(r.Context(), store.SearchParams{
		OwnerID: r.PathValue("ownerID"),
		Query:   r.URL.Query().Get("q"),
		Limit:   limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, events)
}

func (s *Server) handleByType(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events, err := s.events.ByType(r.Context(), store.TypeParams{
		OwnerID:   r.PathValue("ownerID"),
		EventType: r.PathValue("eventType"),
		Limit:     limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, events)
}

func (s *Server) handleByDateRange(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	start, err := queryDate(r, "start")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	end, err := queryDate(r, "end")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	events, err := s.events.ByDateRange(r.Context(), store.DateRangeParams{
		OwnerID: r.PathValue("ownerID"),
		Start:   start,
		End:     end,
		Limit:   limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeList(w, events)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, envelope{Error: "Route not found"})
}

// decodePayload reads a JSON object body. It writes the error response itself
// and reports false when the body is unusable.
func (s *Server) decodePayload(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, envelope{Error: "Request body too large"})
			return nil, false
		}
		writeBadRequest(w, "Could not read request body")
		return nil, false
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		writeBadRequest(w, "Request body must be a JSON object")
		return nil, false
	}
	return payload, true
}

// queryInt parses an optional integer query parameter; absent means zero.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validate.Errorf(name, validate.ReasonNotNumber)
	}
	return n, nil
}

func queryDate(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return time.Time{}, validate.Errorf(name, validate.ReasonRequired)
	}
	t, err := validate.ParseDate(raw)
	if err != nil {
		return time.Time{}, validate.Errorf(name, validate.ReasonNotDate)
	}
	return t, nil
}
