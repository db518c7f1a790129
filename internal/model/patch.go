package model

import (
	"fmt"
	"time"
)

// EventPatch is a validated, normalized event fragment. A nil field was not supplied.
type EventPatch struct {
	OwnerID          *string
	EventText        *string
	EventType        *string
	EventSubtype     *string
	ParsedDate       *time.Time
	OriginalDateText *string
	Participants     *[]string
	Location         *string
	ImportanceScore  *float64
	Confidence       *float64
	EmotionalContext *string
}

// Changes returns the supplied fields keyed by field name, in the value types
// accepted by Event.Set. OwnerID is never included.
func (p EventPatch) Changes() map[string]any {
	c := make(map[string]any)
	putString(c, FieldEventText, p.EventText)
	putString(c, FieldEventType, p.EventType)
	putString(c, FieldEventSubtype, p.EventSubtype)
	putString(c, FieldOriginalDateText, p.OriginalDateText)
	putString(c, FieldLocation, p.Location)
	putString(c, FieldEmotionalContext, p.EmotionalContext)
	if p.ParsedDate != nil {
		c[FieldParsedDate] = *p.ParsedDate
	}
	if p.Participants != nil {
		c[FieldParticipants] = append([]string(nil), (*p.Participants)...)
	}
	if p.ImportanceScore != nil {
		c[FieldImportanceScore] = *p.ImportanceScore
	}
	if p.Confidence != nil {
		c[FieldConfidence] = *p.Confidence
	}
	return c
}

// ApplyTo overwrites the fields of e that the patch supplies, leaving the rest untouched.
// e is left unmodified when any field cannot be set.
func (p EventPatch) ApplyTo(e *Event) error {
	next := e.Clone()
	if p.OwnerID != nil {
		next.OwnerID = *p.OwnerID
	}
	for field, v := range p.Changes() {
		if err := next.Set(field, v); err != nil {
			return fmt.Errorf("apply patch: %w", err)
		}
	}
	*e = next
	return nil
}

// IsEmpty reports whether no field was supplied.
func (p EventPatch) IsEmpty() bool {
	return p.OwnerID == nil && len(p.Changes()) == 0
}

func putString(c map[string]any, field string, s *string) {
	if s != nil {
		c[field] = *s
	}
}
