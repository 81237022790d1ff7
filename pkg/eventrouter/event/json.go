package event

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireEvent is the JSON form of an Event.
type wireEvent struct {
	ID         string    `json:"id"`
	Generator  string    `json:"generator"`
	Source     SourceID  `json:"source"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	DurationNs int64     `json:"duration_ns,omitempty"`
	Name       string    `json:"name,omitempty"`
	Magnitude  float64   `json:"magnitude"`
	Host       string    `json:"host,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (e Event) MarshalJSON() ([]byte, error) {
	if !e.typ.Valid() {
		return nil, fmt.Errorf("marshal event %s: invalid type %d", e.id, uint8(e.typ))
	}
	return json.Marshal(wireEvent{
		ID:         e.id,
		Generator:  e.gen.String(),
		Source:     e.src,
		Type:       e.typ.String(),
		Timestamp:  e.timestamp,
		DurationNs: int64(e.duration),
		Name:       e.name,
		Magnitude:  e.magnitude,
		Host:       e.host,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return fmt.Errorf("unmarshal event: missing id")
	}
	gen, ok := ParseGenerator(w.Generator)
	if !ok {
		return fmt.Errorf("unmarshal event %s: unknown generator %q", w.ID, w.Generator)
	}
	typ, ok := ParseType(w.Type)
	if !ok {
		return fmt.Errorf("unmarshal event %s: unknown type %q", w.ID, w.Type)
	}
	*e = Event{
		id:        w.ID,
		gen:       gen,
		src:       w.Source,
		typ:       typ,
		timestamp: w.Timestamp,
		duration:  time.Duration(w.DurationNs),
		name:      w.Name,
		magnitude: w.Magnitude,
		host:      w.Host,
	}
	return nil
}
