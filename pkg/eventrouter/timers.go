package eventrouter

import (
	"context"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/observability"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/timer"
)

// AddTimer starts or replaces the timer (owner, src). It fires delay after
// now and, if repeat is set, every delay after that on a fixed grid. A
// negative delay removes the timer.
//
// Each fire produces a Timer generator Status event with source src and
// duration delay, delivered first to owner alone and then to the Timer
// generator's subscribers.
func (r *Router) AddTimer(owner Observer, src event.SourceID, delay time.Duration, repeat bool) {
	if owner == nil {
		observability.LogNilHandle(r.logger, "add timer")
		return
	}
	if !usable(owner) {
		observability.LogUncomparableHandle(r.logger, "add timer", owner)
		return
	}
	r.mu.Lock()
	r.timers.Schedule(owner, src, delay, repeat, r.clock())
	r.mu.Unlock()
	r.signal()
}

// RemoveTimer removes the timer (owner, src). A fire of it that is queued
// but not yet delivered is dropped, both for owner and for the Timer
// generator's subscribers. Returns false if no such timer or queued fire
// exists.
func (r *Router) RemoveTimer(owner Observer, src event.SourceID) bool {
	if !usable(owner) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers.Cancel(owner, src)
}

// RemoveTimers removes every timer of owner and returns how many there were.
func (r *Router) RemoveTimers(owner Observer) int {
	if !usable(owner) {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers.CancelAll(owner)
}

// RemoveAllTimers removes every timer.
func (r *Router) RemoveAllTimers() {
	r.mu.Lock()
	r.timers.Reset()
	r.mu.Unlock()
}

// NextTimer returns the earliest timer deadline.
func (r *Router) NextTimer() (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers.Next()
}

// Timer returns the state of the timer (owner, src).
func (r *Router) Timer(owner Observer, src event.SourceID) (timer.Info[Observer], bool) {
	if !usable(owner) {
		return timer.Info[Observer]{}, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers.Lookup(owner, src)
}

// Timers lists every scheduled timer, earliest first.
func (r *Router) Timers() []timer.Info[Observer] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers.Timers()
}

// TimeUntilNext returns how long until the next timer is due, zero if one
// is overdue, or timer.Infinite if none is scheduled.
func (r *Router) TimeUntilNext() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.timers.TimeUntilNext(r.clock())
}

// ProcessTimers fires every timer due at the current clock time and
// returns how many fired. Fires are delivered in deadline order; each one
// reaches its owner before the Timer generator's subscribers.
func (r *Router) ProcessTimers(ctx context.Context) int {
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	now := r.clock()
	fired := r.timers.Tick(now)
	broadcast := r.listenedLocked(event.Timer)
	for _, f := range fired {
		evt := r.newEvent(event.Timer, f.Source, event.Status,
			event.WithTimestamp(f.Scheduled),
			event.WithDuration(f.Delay),
		)
		tf := &timerFire{fired: f, records: 1}
		r.pending = append(r.pending, &record{ctx: ctx, evt: evt, fire: tf, owner: f.Owner})
		if broadcast {
			tf.records++
			r.pending = append(r.pending, &record{
				ctx:          ctx,
				evt:          evt,
				fire:         tf,
				interceptors: r.interceptors.Match(evt),
				observers:    r.observers.Match(evt),
			})
		}
	}
	queued := len(r.pending) == 0 || r.startLocked()
	r.mu.Unlock()

	for _, f := range fired {
		lateness := now.Sub(f.Scheduled)
		r.stats.timersFired.Add(1)
		r.metrics.RecordTimerFire(ctx, lateness)
		observability.LogTimerFired(r.logger, f.Source, f.Scheduled, lateness)
	}
	if !queued {
		r.dispatch()
	}
	return len(fired)
}

// signal wakes Run so it recomputes its sleep.
func (r *Router) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}
