package sqlstore

import (
	"database/sql"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/rcliao/temporal-events/internal/docstore"
	"github.com/rcliao/temporal-events/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sqliteTimeLayout is fixed width so lexical order on TEXT columns matches time order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// columns in scan order.
var columns = []any{
	model.FieldEventID,
	model.FieldOwnerID,
	model.FieldEventText,
	model.FieldEventType,
	model.FieldEventSubtype,
	model.FieldParsedDate,
	model.FieldOriginalDateText,
	model.FieldParticipants,
	model.FieldLocation,
	model.FieldImportanceScore,
	model.FieldConfidence,
	model.FieldEmotionalContext,
	model.FieldCreatedAt,
	model.FieldUpdatedAt,
}

// filterable lists the columns conditions and order-by may reference.
var filterable = map[string]bool{
	model.FieldEventID:          true,
	model.FieldOwnerID:          true,
	model.FieldEventText:        true,
	model.FieldEventType:        true,
	model.FieldEventSubtype:     true,
	model.FieldParsedDate:       true,
	model.FieldOriginalDateText: true,
	model.FieldLocation:         true,
	model.FieldImportanceScore:  true,
	model.FieldConfidence:       true,
	model.FieldEmotionalContext: true,
	model.FieldCreatedAt:        true,
	model.FieldUpdatedAt:        true,
}

// timeColumn scans both native timestamps and the SQLite text encoding.
type timeColumn struct {
	Time  time.Time
	Valid bool
}

func (t *timeColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("unsupported time source %T", src)
}

func (t *timeColumn) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	t.Time, t.Valid = parsed.UTC(), true
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (model.Event, error) {
	var (
		ev                                                 model.Event
		subtype, dateText, participants, location, emotion sql.NullString
		importance, confidence                             sql.NullFloat64
		parsed, created, updated                           timeColumn
	)

	err := row.Scan(
		&ev.EventID, &ev.OwnerID, &ev.EventText, &ev.EventType, &subtype,
		&parsed, &dateText, &participants, &location, &importance,
		&confidence, &emotion, &created, &updated,
	)
	if err != nil {
		return ev, err
	}

	ev.EventSubtype = subtype.String
	ev.OriginalDateText = dateText.String
	ev.Location = location.String
	ev.EmotionalContext = emotion.String
	if parsed.Valid {
		t := parsed.Time
		ev.ParsedDate = &t
	}
	if importance.Valid {
		f := importance.Float64
		ev.ImportanceScore = &f
	}
	if confidence.Valid {
		f := confidence.Float64
		ev.Confidence = &f
	}
	if participants.Valid && participants.String != "" {
		if err := json.Unmarshal([]byte(participants.String), &ev.Participants); err != nil {
			return ev, fmt.Errorf("decode participants: %w", err)
		}
	}
	ev.CreatedAt = created.Time
	ev.UpdatedAt = updated.Time
	return ev, nil
}

// encoder turns model values into driver arguments for one dialect.
type encoder struct {
	textTimes bool
}

func (e encoder) time(t time.Time) any {
	if e.textTimes {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// value encodes a single change or condition value.
func (e encoder) value(field string, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		return x, nil
	case float64:
		return x, nil
	case time.Time:
		return e.time(x), nil
	case []string:
		if field != model.FieldParticipants {
			return nil, fmt.Errorf("%w: list value for %s", docstore.ErrInvalidQuery, field)
		}
		b, err := json.Marshal(x)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("%w: unsupported value %T for %s", docstore.ErrInvalidQuery, v, field)
}

// record encodes a whole event; absent optional fields become NULL.
func (e encoder) record(ev model.Event) (map[string]any, error) {
	rec := map[string]any{
		model.FieldEventID:          ev.EventID,
		model.FieldOwnerID:          ev.OwnerID,
		model.FieldEventText:        ev.EventText,
		model.FieldEventType:        ev.EventType,
		model.FieldEventSubtype:     nullString(ev.EventSubtype),
		model.FieldParsedDate:       nil,
		model.FieldOriginalDateText: nullString(ev.OriginalDateText),
		model.FieldParticipants:     nil,
		model.FieldLocation:         nullString(ev.Location),
		model.FieldImportanceScore:  nil,
		model.FieldConfidence:       nil,
		model.FieldEmotionalContext: nullString(ev.EmotionalContext),
		model.FieldCreatedAt:        e.time(ev.CreatedAt),
		model.FieldUpdatedAt:        e.time(ev.UpdatedAt),
	}
	if ev.ParsedDate != nil {
		rec[model.FieldParsedDate] = e.time(*ev.ParsedDate)
	}
	if ev.ImportanceScore != nil {
		rec[model.FieldImportanceScore] = *ev.ImportanceScore
	}
	if ev.Confidence != nil {
		rec[model.FieldConfidence] = *ev.Confidence
	}
	if ev.Participants != nil {
		p, err := e.value(model.FieldParticipants, ev.Participants)
		if err != nil {
			return nil, err
		}
		rec[model.FieldParticipants] = p
	}
	return rec, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
