package redisrelay

import (
	"errors"
	"fmt"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// Sentinel errors for the Redis relay.
var (
	// ErrZeroEvent indicates an event without identity on the wire.
	ErrZeroEvent = errors.New("zero event")

	// ErrThrottled indicates the publish rate limit was exceeded.
	ErrThrottled = errors.New("publish rate exceeded")

	// ErrSubscriptionClosed indicates Redis closed the subscription channel.
	ErrSubscriptionClosed = errors.New("subscription closed")
)

// PublishError reports an event that could not be published.
type PublishError struct {
	Channel  string
	Event    event.Event
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %s to %q after %d attempt(s): %v",
		e.Event.Description(), e.Channel, e.Attempts, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *PublishError) Unwrap() error {
	return e.Err
}
