package redisrelay

import (
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// Encode returns the wire form of evt.
func Encode(evt event.Event) ([]byte, error) {
	if evt.IsZero() {
		return nil, fmt.Errorf("encode: %w", ErrZeroEvent)
	}
	return json.Marshal(evt)
}

// Decode parses a wire payload.
func Decode(data []byte) (event.Event, error) {
	var evt event.Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return event.Event{}, fmt.Errorf("decode: %w", err)
	}
	if evt.IsZero() {
		return event.Event{}, fmt.Errorf("decode: %w", ErrZeroEvent)
	}
	return evt, nil
}
