// Package model defines the core event data types.
package model

import (
	"fmt"
	"time"
)

// Field names, shared by the JSON interchange shape and every document store.
const (
	FieldEventID          = "event_id"
	FieldOwnerID          = "owner_id"
	FieldEventText        = "event_text"
	FieldEventType        = "event_type"
	FieldEventSubtype     = "event_subtype"
	FieldParsedDate       = "parsed_date"
	FieldOriginalDateText = "original_date_text"
	FieldParticipants     = "participants"
	FieldLocation         = "location"
	FieldImportanceScore  = "importance_score"
	FieldConfidence       = "confidence"
	FieldEmotionalContext = "emotional_context"
	FieldCreatedAt        = "created_at"
	FieldUpdatedAt        = "updated_at"
)

// Event is a discrete event extracted from upstream text, owned by exactly one owner.
//
// Optional string fields use the empty string for "absent"; the validator never
// lets an empty string through.
type Event struct {
	EventID          string     `json:"event_id" firestore:"event_id"`
	OwnerID          string     `json:"owner_id" firestore:"owner_id"`
	EventText        string     `json:"event_text" firestore:"event_text"`
	EventType        string     `json:"event_type" firestore:"event_type"`
	EventSubtype     string     `json:"event_subtype,omitempty" firestore:"event_subtype,omitempty"`
	ParsedDate       *time.Time `json:"parsed_date,omitempty" firestore:"parsed_date,omitempty"`
	OriginalDateText string     `json:"original_date_text,omitempty" firestore:"original_date_text,omitempty"`
	Participants     []string   `json:"participants,omitempty" firestore:"participants,omitempty"`
	Location         string     `json:"location,omitempty" firestore:"location,omitempty"`
	ImportanceScore  *float64   `json:"importance_score,omitempty" firestore:"importance_score,omitempty"`
	Confidence       *float64   `json:"confidence,omitempty" firestore:"confidence,omitempty"`
	EmotionalContext string     `json:"emotional_context,omitempty" firestore:"emotional_context,omitempty"`
	CreatedAt        time.Time  `json:"created_at" firestore:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" firestore:"updated_at"`
}

// Value returns the value of the named field and whether it is present.
// Absent optional fields report false, which is what range filters rely on.
func (e Event) Value(field string) (any, bool) {
	switch field {
	case FieldEventID:
		return e.EventID, e.EventID != ""
	case FieldOwnerID:
		return e.OwnerID, e.OwnerID != ""
	case FieldEventText:
		return e.EventText, e.EventText != ""
	case FieldEventType:
		return e.EventType, e.EventType != ""
	case FieldEventSubtype:
		return e.EventSubtype, e.EventSubtype != ""
	case FieldParsedDate:
		if e.ParsedDate == nil {
			return nil, false
		}
		return *e.ParsedDate, true
	case FieldOriginalDateText:
		return e.OriginalDateText, e.OriginalDateText != ""
	case FieldParticipants:
		return e.Participants, e.Participants != nil
	case FieldLocation:
		return e.Location, e.Location != ""
	case FieldImportanceScore:
		if e.ImportanceScore == nil {
			return nil, false
		}
		return *e.ImportanceScore, true
	case FieldConfidence:
		if e.Confidence == nil {
			return nil, false
		}
		return *e.Confidence, true
	case FieldEmotionalContext:
		return e.EmotionalContext, e.EmotionalContext != ""
	case FieldCreatedAt:
		return e.CreatedAt, !e.CreatedAt.IsZero()
	case FieldUpdatedAt:
		return e.UpdatedAt, !e.UpdatedAt.IsZero()
	}
	return nil, false
}

// Set assigns a single field from a store-level change value.
func (e *Event) Set(field string, v any) error {
	switch field {
	case FieldEventID, FieldOwnerID:
		return fmt.Errorf("field %s is immutable", field)
	case FieldEventText:
		return setString(&e.EventText, field, v)
	case FieldEventType:
		return setString(&e.EventType, field, v)
	case FieldEventSubtype:
		return setString(&e.EventSubtype, field, v)
	case FieldOriginalDateText:
		return setString(&e.OriginalDateText, field, v)
	case FieldLocation:
		return setString(&e.Location, field, v)
	case FieldEmotionalContext:
		return setString(&e.EmotionalContext, field, v)
	case FieldParticipants:
		p, ok := v.([]string)
		if !ok {
			return fmt.Errorf("field %s: unexpected %T", field, v)
		}
		e.Participants = append([]string(nil), p...)
	case FieldParsedDate:
		t, ok := v.(time.Time)
		if !ok {
			return fmt.Errorf("field %s: unexpected %T", field, v)
		}
		e.ParsedDate = &t
	case FieldImportanceScore:
		return setFloat(&e.ImportanceScore, field, v)
	case FieldConfidence:
		return setFloat(&e.Confidence, field, v)
	case FieldCreatedAt:
		return setTime(&e.CreatedAt, field, v)
	case FieldUpdatedAt:
		return setTime(&e.UpdatedAt, field, v)
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

// Clone returns a deep copy, so stored records never share pointers with callers.
func (e Event) Clone() Event {
	c := e
	if e.ParsedDate != nil {
		t := *e.ParsedDate
		c.ParsedDate = &t
	}
	if e.Participants != nil {
		c.Participants = append([]string(nil), e.Participants...)
	}
	if e.ImportanceScore != nil {
		f := *e.ImportanceScore
		c.ImportanceScore = &f
	}
	if e.Confidence != nil {
		f := *e.Confidence
		c.Confidence = &f
	}
	return c
}

func setString(dst *string, field string, v any) error {
	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("field %s: unexpected %T", field, v)
	}
	*dst = s
	return nil
}

func setFloat(dst **float64, field string, v any) error {
	f, ok := v.(float64)
	if !ok {
		return fmt.Errorf("field %s: unexpected %T", field, v)
	}
	*dst = &f
	return nil
}

func setTime(dst *time.Time, field string, v any) error {
	t, ok := v.(time.Time)
	if !ok {
		return fmt.Errorf("field %s: unexpected %T", field, v)
	}
	*dst = t
	return nil
}
