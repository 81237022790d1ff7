package eventrouter

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
)

// Sentinel errors for posting.
var (
	// ErrClosed indicates the router was closed.
	ErrClosed = errors.New("router closed")

	// ErrInvalidEvent indicates a zero event.Event was posted.
	ErrInvalidEvent = errors.New("invalid event")
)

// RelayError reports an event a forwarding relay failed to take.
type RelayError struct {
	// Origin is the forwarding slot the relay was installed in.
	Origin forward.Origin
	// Event is the event that was lost.
	Event event.Event
	// Err is the relay's error.
	Err error
}

// Error implements the error interface.
func (e *RelayError) Error() string {
	return fmt.Sprintf("relay %s: event %s: %v", e.Origin, e.Event.Description(), e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RelayError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a subscriber callback.
type PanicError struct {
	Event     event.Event
	Recovered any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("subscriber panicked on %s: %v", e.Event.Description(), e.Recovered)
}
