package eventrouter

import (
	"context"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/observability"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
)

// Queue returns the relay queue drained by DrainQueue and Run. Producers on
// other goroutines submit to it instead of posting.
func (r *Router) Queue() *relay.Queue {
	return r.queue
}

// QueueEvent submits evt to the relay queue. It never blocks on dispatch.
func (r *Router) QueueEvent(evt event.Event) bool {
	return r.queue.Submit(evt)
}

// RequeueEvent submits evt to the relay queue after removing queued events
// with the same generator and source.
func (r *Router) RequeueEvent(evt event.Event) bool {
	return r.queue.SubmitReplacing(evt)
}

// DrainQueue posts every queued event in submission order and returns how
// many were taken. Drained events are posted with origin forward.Main.
func (r *Router) DrainQueue(ctx context.Context) int {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = forward.WithOrigin(ctx, forward.Main)
	return r.queue.Drain(func(evt event.Event) {
		// Relay failures are logged by Post.
		_ = r.Post(ctx, evt)
	})
}

// Run is the host loop: it fires due timers and drains the relay queue,
// then sleeps until the next timer, a queue submission or the idle
// interval. It returns ctx.Err() when ctx is done, or ErrClosed after Close.
func (r *Router) Run(ctx context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	observability.LogRunStart(r.logger, r.idle)
	done := observability.TimedOperation()

	sleep := time.NewTimer(r.idle)
	defer sleep.Stop()

	for {
		r.resume()
		r.ProcessTimers(ctx)
		r.DrainQueue(ctx)

		wait := min(r.TimeUntilNext(), r.idle)
		sleep.Reset(wait)

		select {
		case <-ctx.Done():
			err := ctx.Err()
			observability.LogRunStop(r.logger, err, float64(done().Milliseconds()))
			return err
		case <-r.done:
			observability.LogRunStop(r.logger, ErrClosed, float64(done().Milliseconds()))
			return ErrClosed
		case <-r.queue.Ready():
		case <-r.wake:
		case <-sleep.C:
		}
	}
}
