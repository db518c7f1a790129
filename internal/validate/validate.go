// Package validate normalizes raw event payloads into typed event fragments.
//
// The accepted fields, their kinds, and the per-mode required and immutable sets
// are declared as data below; Create and Update only differ in which sets apply.
package validate

import (
	"fmt"
	"math"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/rcliao/temporal-events/internal/model"
)

// Mode selects the required-field set applied to a payload.
type Mode int

const (
	// ModeCreate requires owner_id, event_text and event_type.
	ModeCreate Mode = iota
	// ModeUpdate makes every field optional and rejects identity fields.
	ModeUpdate
)

func (m Mode) String() string {
	if m == ModeUpdate {
		return "update"
	}
	return "create"
}

// Reason identifies why a field was rejected.
type Reason string

const (
	ReasonRequired     Reason = "is required"
	ReasonNotString    Reason = "must be a string"
	ReasonEmpty        Reason = "must not be empty"
	ReasonNotNumber    Reason = "must be a number"
	ReasonOutOfRange   Reason = "must be between 0 and 1"
	ReasonNotDate      Reason = "must be an ISO 8601 date"
	ReasonNotList      Reason = "must be an array of non-empty strings"
	ReasonInvalidJSON  Reason = "must be a valid JSON string"
	ReasonNotAllowed   Reason = "is not allowed"
	ReasonImmutable    Reason = "cannot be changed"
	ReasonInvalidRange Reason = "must not be after end"
	ReasonNegative     Reason = "must not be negative"
)

// ValidationError names the offending field and the rule it broke.
type ValidationError struct {
	Field  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s %s", e.Field, e.Reason)
}

// Errorf builds a ValidationError for field.
func Errorf(field string, reason Reason) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

type kind int

const (
	kindText kind = iota
	kindStringList
	kindUnitInterval
	kindDate
	kindJSONText
)

type fieldRule struct {
	field string
	kind  kind
}

// eventFields lists every client-settable field in validation order.
var eventFields = []fieldRule{
	{model.FieldOwnerID, kindText},
	{model.FieldEventText, kindText},
	{model.FieldEventType, kindText},
	{model.FieldEventSubtype, kindText},
	{model.FieldParsedDate, kindDate},
	{model.FieldOriginalDateText, kindText},
	{model.FieldParticipants, kindStringList},
	{model.FieldLocation, kindText},
	{model.FieldImportanceScore, kindUnitInterval},
	{model.FieldConfidence, kindUnitInterval},
	{model.FieldEmotionalContext, kindJSONText},
}

var requiredFields = map[Mode][]string{
	ModeCreate: {model.FieldOwnerID, model.FieldEventText, model.FieldEventType},
	ModeUpdate: nil,
}

var immutableFields = map[Mode][]string{
	ModeCreate: nil,
	ModeUpdate: {model.FieldOwnerID, model.FieldEventID},
}

// Create validates a payload for a new event.
func Create(payload map[string]any) (model.EventPatch, error) {
	return Payload(payload, ModeCreate)
}

// Update validates a partial-update payload.
func Update(payload map[string]any) (model.EventPatch, error) {
	return Payload(payload, ModeUpdate)
}

// Payload validates payload in the given mode and returns only the recognized,
// coerced fields. The first failure is returned.
func Payload(payload map[string]any, mode Mode) (model.EventPatch, error) {
	var patch model.EventPatch

	for _, field := range immutableFields[mode] {
		if _, ok := payload[field]; ok {
			return model.EventPatch{}, Errorf(field, ReasonImmutable)
		}
	}

	for _, rule := range eventFields {
		raw, ok := payload[rule.field]
		if !ok {
			if contains(requiredFields[mode], rule.field) {
				return model.EventPatch{}, Errorf(rule.field, ReasonRequired)
			}
			continue
		}
		if err := assign(&patch, rule, raw); err != nil {
			return model.EventPatch{}, err
		}
	}

	if key, ok := firstUnknownKey(payload); ok {
		return model.EventPatch{}, Errorf(key, ReasonNotAllowed)
	}

	return patch, nil
}

func assign(patch *model.EventPatch, rule fieldRule, raw any) error {
	switch rule.kind {
	case kindText, kindJSONText:
		s, err := text(rule.field, raw)
		if err != nil {
			return err
		}
		if rule.kind == kindJSONText && !jsoniter.Valid([]byte(s)) {
			return Errorf(rule.field, ReasonInvalidJSON)
		}
		textTarget(patch, rule.field, s)
	case kindStringList:
		list, err := stringList(rule.field, raw)
		if err != nil {
			return err
		}
		patch.Participants = &list
	case kindUnitInterval:
		f, err := unitInterval(rule.field, raw)
		if err != nil {
			return err
		}
		if rule.field == model.FieldImportanceScore {
			patch.ImportanceScore = &f
		} else {
			patch.Confidence = &f
		}
	case kindDate:
		t, err := date(rule.field, raw)
		if err != nil {
			return err
		}
		patch.ParsedDate = &t
	}
	return nil
}

func textTarget(patch *model.EventPatch, field, s string) {
	switch field {
	case model.FieldOwnerID:
		patch.OwnerID = &s
	case model.FieldEventText:
		patch.EventText = &s
	case model.FieldEventType:
		patch.EventType = &s
	case model.FieldEventSubtype:
		patch.EventSubtype = &s
	case model.FieldOriginalDateText:
		patch.OriginalDateText = &s
	case model.FieldLocation:
		patch.Location = &s
	case model.FieldEmotionalContext:
		patch.EmotionalContext = &s
	}
}

func text(field string, raw any) (string, error) {
	s, ok := raw.(string)
	if !ok {
		return "", Errorf(field, ReasonNotString)
	}
	if s == "" {
		return "", Errorf(field, ReasonEmpty)
	}
	return s, nil
}

func stringList(field string, raw any) ([]string, error) {
	switch v := raw.(type) {
	case []string:
		for _, s := range v {
			if s == "" {
				return nil, Errorf(field, ReasonNotList)
			}
		}
		return append([]string{}, v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok || s == "" {
				return nil, Errorf(field, ReasonNotList)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, Errorf(field, ReasonNotList)
}

// floater covers both encoding/json and jsoniter Number types.
type floater interface {
	Float64() (float64, error)
}

func unitInterval(field string, raw any) (float64, error) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case floater:
		n, err := v.Float64()
		if err != nil {
			return 0, Errorf(field, ReasonNotNumber)
		}
		f = n
	default:
		return 0, Errorf(field, ReasonNotNumber)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, Errorf(field, ReasonNotNumber)
	}
	if f < 0 || f > 1 {
		return 0, Errorf(field, ReasonOutOfRange)
	}
	return f, nil
}

func date(field string, raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return Normalize(v), nil
	case string:
		t, err := ParseDate(v)
		if err != nil {
			return time.Time{}, Errorf(field, ReasonNotDate)
		}
		return t, nil
	}
	return time.Time{}, Errorf(field, ReasonNotDate)
}

func firstUnknownKey(payload map[string]any) (string, bool) {
	var unknown []string
	for key := range payload {
		if !known(key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return "", false
	}
	sort.Strings(unknown)
	return unknown[0], true
}

func known(key string) bool {
	for _, rule := range eventFields {
		if rule.field == key {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
