package eventrouter

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/observability"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/timer"
)

// backlogThreshold is the number of records one dispatch call may drain
// before the backlog is logged.
const backlogThreshold = 64

// record is one event waiting for, or in the middle of, delivery. The
// subscriber lists are frozen when the event is posted; cursors advance
// before each callback so a callback that never returns cannot cause a
// second delivery.
type record struct {
	ctx          context.Context
	evt          event.Event
	interceptors []Interceptor
	observers    []Observer
	ii, oi       int
	suppressed   bool
	delivered    int

	// Timer records: owner is set on the direct delivery, which calls only
	// owner. The broadcast record shares fire with it.
	fire  *timerFire
	owner Observer
	sent  bool

	started bool
	start   time.Time
	span    trace.Span
}

// timerFire is the state shared by the records of one timer fire. The fire
// is checked once, before its first record delivers anything; a fire
// cancelled by then is skipped by all its records.
type timerFire struct {
	fired   timer.Fired[Observer]
	records int
	checked bool
	live    bool
}

// step is one callback to run outside the lock.
type step struct {
	rec         *record
	interceptor Interceptor
	observer    Observer
}

// Post delivers evt to its interceptors and observers.
//
// If a relay is installed for the origin carried by ctx (see
// forward.WithOrigin) the relay is offered the event first; a relay that
// suppresses takes responsibility for it. A relay failure is returned as
// a *RelayError.
//
// If a dispatch is already running, from a subscriber callback or another
// goroutine, the event is queued behind it and Post returns at once; the
// active dispatcher delivers queued events in the order they were posted.
// Otherwise Post delivers on the calling goroutine before returning.
func (r *Router) Post(ctx context.Context, evt event.Event) error {
	if evt.IsZero() {
		return ErrInvalidEvent
	}
	if r.closed.Load() {
		return ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var relayErr error
	origin := forward.OriginFrom(ctx)
	if rl := r.forwards.Get(origin); rl != nil {
		suppressed, err := r.relay(ctx, rl, origin, evt)
		if err != nil {
			relayErr = &RelayError{Origin: origin, Event: evt, Err: err}
			if suppressed {
				return relayErr
			}
		} else if suppressed {
			return nil
		}
	}

	r.enqueue(ctx, evt)
	return relayErr
}

// PostEvent builds an event stamped with the router's host and posts it.
func (r *Router) PostEvent(ctx context.Context, gen event.Generator, src event.SourceID, typ event.Type, opts ...event.Option) error {
	return r.Post(ctx, r.newEvent(gen, src, typ, opts...))
}

func (r *Router) relay(ctx context.Context, rl forward.Relay, origin forward.Origin, evt event.Event) (bool, error) {
	rctx, span := r.spans.StartRelaySpan(ctx, evt, origin.String())
	suppressed, err := rl.Relay(rctx, evt)
	r.spans.EndSpanWithError(span, err)
	r.metrics.RecordRelay(ctx, origin.String(), err)
	if err != nil {
		r.stats.relayErrors.Add(1)
		observability.LogRelayError(r.logger, origin.String(), evt, err)
		return suppressed, err
	}
	if suppressed {
		r.stats.relayed.Add(1)
	}
	return suppressed, nil
}

// enqueue snapshots the subscribers of evt and delivers it, or queues it
// behind the active dispatch.
func (r *Router) enqueue(ctx context.Context, evt event.Event) {
	r.mu.Lock()
	r.pending = append(r.pending, &record{
		ctx:          ctx,
		evt:          evt,
		interceptors: r.interceptors.Match(evt),
		observers:    r.observers.Match(evt),
	})
	queued := r.startLocked()
	r.mu.Unlock()

	r.stats.posted.Add(1)
	r.metrics.RecordPost(ctx, evt, queued)
	if !queued {
		r.dispatch()
	}
}

// startLocked claims the dispatcher role. It returns true if another
// dispatch is active and the caller must not dispatch.
func (r *Router) startLocked() bool {
	if r.dispatching {
		return true
	}
	r.dispatching = true
	return false
}

// resume delivers records left behind by a callback that panicked.
func (r *Router) resume() {
	r.mu.Lock()
	if len(r.pending) == 0 || r.startLocked() {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	r.dispatch()
}

// dispatch delivers pending records until none remain. The caller must
// hold the dispatcher role. If a callback panics the role is released and
// the remaining records wait for the next post.
func (r *Router) dispatch() {
	released := false
	defer func() {
		if !released {
			r.mu.Lock()
			r.dispatching = false
			r.mu.Unlock()
		}
	}()

	drained := 0
	for {
		r.mu.Lock()
		st, finished := r.nextLocked()
		drained += finished
		if st.rec == nil {
			r.dispatching = false
			released = true
			r.mu.Unlock()
			if drained > backlogThreshold {
				observability.LogDispatchBacklog(r.logger, drained)
			}
			return
		}
		r.mu.Unlock()
		r.invoke(st)
	}
}

// nextLocked finds the next callback to run, retiring finished records on
// the way. It returns the step (zero if nothing is left) and the number of
// records retired.
func (r *Router) nextLocked() (step, int) {
	finished := 0
	for len(r.pending) > 0 {
		rec := r.pending[0]
		if !rec.started {
			rec.started = true
			rec.start = time.Now()
			rec.ctx, rec.span = r.spans.StartDispatchSpan(rec.ctx, rec.evt)
		}
		if st, ok := r.advanceLocked(rec); ok {
			return st, finished
		}
		r.finishLocked(rec)
		r.pending[0] = nil
		r.pending = r.pending[1:]
		finished++
	}
	r.pending = nil
	return step{}, finished
}

// advanceLocked moves rec's cursors to its next live subscriber. Handles
// that were removed since the snapshot are skipped.
func (r *Router) advanceLocked(rec *record) (step, bool) {
	if tf := rec.fire; tf != nil {
		if !tf.checked {
			tf.checked = true
			tf.live = r.timers.Valid(tf.fired)
		}
		if !tf.live {
			if !rec.sent {
				rec.sent = true
				r.skipLocked(rec)
			}
			return step{}, false
		}
	}
	if rec.owner != nil {
		if rec.sent {
			return step{}, false
		}
		rec.sent = true
		return step{rec: rec, observer: rec.owner}, true
	}
	if rec.suppressed {
		return step{}, false
	}
	for rec.ii < len(rec.interceptors) {
		ic := rec.interceptors[rec.ii]
		rec.ii++
		if r.interceptors.Contains(ic, rec.evt) {
			return step{rec: rec, interceptor: ic}, true
		}
		r.skipLocked(rec)
	}
	for rec.oi < len(rec.observers) {
		obs := rec.observers[rec.oi]
		rec.oi++
		if r.observers.Contains(obs, rec.evt) {
			return step{rec: rec, observer: obs}, true
		}
		r.skipLocked(rec)
	}
	return step{}, false
}

func (r *Router) skipLocked(rec *record) {
	r.stats.skipped.Add(1)
	r.metrics.RecordSkipped(rec.ctx, rec.evt)
}

func (r *Router) finishLocked(rec *record) {
	if tf := rec.fire; tf != nil {
		if tf.records--; tf.records == 0 {
			r.timers.Done(tf.fired)
		}
	}
	r.stats.delivered.Add(int64(rec.delivered))
	if rec.suppressed {
		r.stats.suppressed.Add(1)
		r.spans.AddSpanEvent(rec.ctx, "suppressed")
	}
	r.metrics.RecordDispatch(rec.ctx, rec.evt, rec.delivered, rec.suppressed, time.Since(rec.start))
	r.spans.EndSpanWithError(rec.span, nil)
}

// invoke runs one callback without holding the lock.
func (r *Router) invoke(st step) {
	rec := st.rec
	if r.recoverPanics {
		defer func() {
			if v := recover(); v != nil {
				r.stats.panics.Add(1)
				r.metrics.RecordPanic(rec.ctx, rec.evt)
				observability.LogSubscriberPanic(r.logger, rec.evt, v)
				r.spans.AddSpanEvent(rec.ctx, "subscriber_panic")
				if r.onPanic != nil {
					r.onPanic(rec.ctx, &PanicError{Event: rec.evt, Recovered: v})
				}
			}
		}()
	}
	if st.interceptor != nil {
		if st.interceptor.Intercept(rec.ctx, rec.evt) {
			rec.suppressed = true
		}
		rec.delivered++
		return
	}
	st.observer.Receive(rec.ctx, rec.evt)
	rec.delivered++
}
