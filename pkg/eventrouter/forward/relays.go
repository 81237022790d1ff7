package forward

import (
	"context"
	"errors"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
)

// ErrQueueRejected is returned by QueueRelay when the queue refused an event.
var ErrQueueRejected = errors.New("relay queue rejected event")

// RelayFunc adapts a function to the Relay interface.
type RelayFunc func(ctx context.Context, evt event.Event) (bool, error)

// Relay calls f.
func (f RelayFunc) Relay(ctx context.Context, evt event.Event) (bool, error) {
	return f(ctx, evt)
}

// QueueRelay hands events to a relay.Queue drained by the owning context.
type QueueRelay struct {
	Queue *relay.Queue
	// Replace submits with SubmitReplacing.
	Replace bool
}

var _ Relay = (*QueueRelay)(nil)

// Relay submits evt to the queue and suppresses local dispatch.
func (r *QueueRelay) Relay(_ context.Context, evt event.Event) (bool, error) {
	var ok bool
	if r.Replace {
		ok = r.Queue.SubmitReplacing(evt)
	} else {
		ok = r.Queue.Submit(evt)
	}
	if !ok {
		return true, ErrQueueRejected
	}
	return true, nil
}

// Poster is anything that can post an event, typically another router.
type Poster interface {
	Post(ctx context.Context, evt event.Event) error
}

// PosterRelay posts events straight into another router. The target
// should run in a context where posting from the caller's goroutine is
// allowed.
type PosterRelay struct {
	Target Poster
	// Origin is attached to the forwarded post so the target does not
	// forward the event back.
	Origin Origin
}

var _ Relay = (*PosterRelay)(nil)

// Relay posts evt to the target and suppresses local dispatch.
func (r *PosterRelay) Relay(ctx context.Context, evt event.Event) (bool, error) {
	return true, r.Target.Post(WithOrigin(ctx, r.Origin), evt)
}

// Tee passes events to an inner relay without suppressing local dispatch.
type Tee struct {
	Inner Relay
}

var _ Relay = Tee{}

// Relay forwards evt and reports suppressed=false.
func (t Tee) Relay(ctx context.Context, evt event.Event) (bool, error) {
	_, err := t.Inner.Relay(ctx, evt)
	return false, err
}
