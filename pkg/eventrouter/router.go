package eventrouter

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/observability"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/subscription"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/timer"
)

// Router distributes events to interceptors and observers and turns timers
// into events. All methods are safe for concurrent use; subscriber callbacks
// run on whichever goroutine started the active dispatch.
type Router struct {
	mu           sync.Mutex
	interceptors *subscription.Table[Interceptor]
	observers    *subscription.Table[Observer]
	timers       *timer.Scheduler[Observer]
	pending      []*record
	dispatching  bool

	forwards *forward.Table
	queue    *relay.Queue

	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
	clock         func() time.Time
	recoverPanics bool
	onPanic       func(context.Context, *PanicError)
	notices       bool
	idle          time.Duration
	host          string

	closed    atomic.Bool
	done      chan struct{}
	closeOnce sync.Once
	wake      chan struct{}

	stats counters
}

type counters struct {
	posted      atomic.Int64
	delivered   atomic.Int64
	suppressed  atomic.Int64
	skipped     atomic.Int64
	relayed     atomic.Int64
	relayErrors atomic.Int64
	timersFired atomic.Int64
	panics      atomic.Int64
}

// Stats is a snapshot of router activity since creation.
type Stats struct {
	Posted      int64
	Delivered   int64
	Suppressed  int64
	Skipped     int64
	Relayed     int64
	RelayErrors int64
	TimersFired int64
	Panics      int64
	Pending     int
	Queue       relay.Stats
}

// New creates a router.
//
// Example:
//
//	r := eventrouter.New(eventrouter.WithLogger(logger))
//	r.Subscribe(obs, subscription.ForGenerator(event.Button))
//	err := r.Post(ctx, event.New(event.Button, 3, event.Activate))
func New(opts ...Option) *Router {
	cfg := defaultRouterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Router{
		interceptors:  subscription.NewTable[Interceptor](),
		observers:     subscription.NewTable[Observer](),
		timers:        timer.NewScheduler[Observer](),
		forwards:      forward.NewTable(),
		logger:        cfg.logger,
		metrics:       cfg.metrics,
		spans:         cfg.spans,
		clock:         cfg.clock,
		recoverPanics: cfg.recoverPanics,
		onPanic:       cfg.onPanic,
		notices:       cfg.notices,
		idle:          cfg.idle,
		host:          cfg.host,
		done:          make(chan struct{}),
		wake:          make(chan struct{}, 1),
	}

	r.queue = cfg.queue
	if r.queue == nil {
		qc := cfg.queueConfig
		policy := qc.Overflow.String()
		userDrop := qc.OnDrop
		qc.OnDrop = func(evt event.Event) {
			observability.LogQueueDrop(r.logger, evt, policy)
			r.metrics.RecordQueueDrop(context.Background(), policy)
			if userDrop != nil {
				userDrop(evt)
			}
		}
		r.queue = relay.NewQueue(qc)
	}
	return r
}

// Close stops the router: the relay queue is closed, forwarding relays
// that implement io.Closer are closed, Run returns and further posts fail
// with ErrClosed. Subscriptions are left in place.
func (r *Router) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		close(r.done)
		r.queue.Close()
		err = r.forwards.Close()
	})
	return err
}

// Stats returns a snapshot of the router counters.
func (r *Router) Stats() Stats {
	r.mu.Lock()
	pending := len(r.pending)
	r.mu.Unlock()
	return Stats{
		Posted:      r.stats.posted.Load(),
		Delivered:   r.stats.delivered.Load(),
		Suppressed:  r.stats.suppressed.Load(),
		Skipped:     r.stats.skipped.Load(),
		Relayed:     r.stats.relayed.Load(),
		RelayErrors: r.stats.relayErrors.Load(),
		TimersFired: r.stats.timersFired.Load(),
		Panics:      r.stats.panics.Load(),
		Pending:     pending,
		Queue:       r.queue.Stats(),
	}
}

// Subscribe registers obs for events matching key. Subscribing twice under
// the same key yields two deliveries per matching event.
func (r *Router) Subscribe(obs Observer, key subscription.Key) {
	if obs == nil {
		observability.LogNilHandle(r.logger, "subscribe")
		return
	}
	if !usable(obs) {
		observability.LogUncomparableHandle(r.logger, "subscribe", obs)
		return
	}
	if !key.Valid() {
		observability.LogInvalidKey(r.logger, "subscribe", key)
		return
	}
	r.mu.Lock()
	had := r.listenedLocked(key.Generator)
	r.observers.Add(obs, key)
	r.mu.Unlock()
	r.notify(key.Generator, had, true)
}

// Unsubscribe removes subscriptions of obs within key's scope and reports
// whether any were removed. A generator key removes every subscription obs
// holds under that generator; a source key keeps generator-wide ones.
func (r *Router) Unsubscribe(obs Observer, key subscription.Key) bool {
	if !usable(obs) || !key.Valid() {
		return false
	}
	r.mu.Lock()
	n := r.observers.Remove(obs, key)
	still := r.listenedLocked(key.Generator)
	r.mu.Unlock()
	if n == 0 {
		return false
	}
	r.notify(key.Generator, true, still)
	return true
}

// UnsubscribeAll removes every subscription of obs. Timers are kept.
func (r *Router) UnsubscribeAll(obs Observer) {
	if !usable(obs) {
		return
	}
	r.mu.Lock()
	gens := r.observers.RemoveAll(obs)
	r.notifyAfterRemovalLocked(gens)()
}

// Intercept registers ic for events matching key. Interceptors see an
// event before any observer.
func (r *Router) Intercept(ic Interceptor, key subscription.Key) {
	if ic == nil {
		observability.LogNilHandle(r.logger, "intercept")
		return
	}
	if !usable(ic) {
		observability.LogUncomparableHandle(r.logger, "intercept", ic)
		return
	}
	if !key.Valid() {
		observability.LogInvalidKey(r.logger, "intercept", key)
		return
	}
	r.mu.Lock()
	had := r.listenedLocked(key.Generator)
	r.interceptors.Add(ic, key)
	r.mu.Unlock()
	r.notify(key.Generator, had, true)
}

// Unintercept removes interceptions of ic within key's scope, with the
// same breadth rules as Unsubscribe.
func (r *Router) Unintercept(ic Interceptor, key subscription.Key) bool {
	if !usable(ic) || !key.Valid() {
		return false
	}
	r.mu.Lock()
	n := r.interceptors.Remove(ic, key)
	still := r.listenedLocked(key.Generator)
	r.mu.Unlock()
	if n == 0 {
		return false
	}
	r.notify(key.Generator, true, still)
	return true
}

// UninterceptAll removes every interception of ic.
func (r *Router) UninterceptAll(ic Interceptor) {
	if !usable(ic) {
		return
	}
	r.mu.Lock()
	gens := r.interceptors.RemoveAll(ic)
	r.notifyAfterRemovalLocked(gens)()
}

// Remove drops every subscription and every timer of obs.
func (r *Router) Remove(obs Observer) {
	if !usable(obs) {
		return
	}
	r.mu.Lock()
	r.timers.CancelAll(obs)
	gens := r.observers.RemoveAll(obs)
	r.notifyAfterRemovalLocked(gens)()
}

// Reset removes all subscriptions and timers. Events already being
// delivered skip the removed subscribers.
func (r *Router) Reset() {
	r.mu.Lock()
	r.interceptors.Clear()
	r.observers.Clear()
	r.timers.Reset()
	r.mu.Unlock()
}

// HasSubscribers reports whether any interceptor or observer would receive
// an event in key's scope. Producers use it to skip building events nobody
// listens to.
func (r *Router) HasSubscribers(key subscription.Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.observers.HasAny(key) || r.interceptors.HasAny(key)
}

// IsSubscribed reports whether obs would receive evt.
func (r *Router) IsSubscribed(obs Observer, evt event.Event) bool {
	if !usable(obs) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.observers.Contains(obs, evt)
}

// IsSubscribedAny reports whether obs holds any subscription in key's scope.
func (r *Router) IsSubscribedAny(obs Observer, key subscription.Key) bool {
	if !usable(obs) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.observers.SubscribedAny(obs, key)
}

// IsSubscribedAll reports whether obs receives every event in key's scope.
func (r *Router) IsSubscribedAll(obs Observer, key subscription.Key) bool {
	if !usable(obs) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.observers.SubscribedAll(obs, key)
}

// IsIntercepting reports whether ic would see evt.
func (r *Router) IsIntercepting(ic Interceptor, evt event.Event) bool {
	if !usable(ic) {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.interceptors.Contains(ic, evt)
}

// SetForward installs rl for posts made from origin o. A nil rl clears the
// slot. The previous relay is closed if it implements io.Closer.
func (r *Router) SetForward(o forward.Origin, rl forward.Relay) error {
	return r.forwards.Set(o, rl)
}

// ClearForward empties the forwarding slot for o.
func (r *Router) ClearForward(o forward.Origin) error {
	return r.forwards.Clear(o)
}

// listenedLocked reports whether generator g has any interceptor or observer.
func (r *Router) listenedLocked(g event.Generator) bool {
	k := subscription.ForGenerator(g)
	return r.observers.HasAny(k) || r.interceptors.HasAny(k)
}

// notifyAfterRemovalLocked computes notices for generators that lost
// subscriptions, releases the lock and returns the function posting them.
func (r *Router) notifyAfterRemovalLocked(gens []event.Generator) func() {
	still := make([]bool, len(gens))
	for i, g := range gens {
		still[i] = r.listenedLocked(g)
	}
	r.mu.Unlock()
	return func() {
		for i, g := range gens {
			r.notify(g, true, still[i])
		}
	}
}

// notify posts a Router generator event describing a subscription change
// for gen: Activate when gen gained its first subscriber, Deactivate when
// it lost its last one, Status otherwise.
func (r *Router) notify(gen event.Generator, had, has bool) {
	if !r.notices || gen == event.Router || r.closed.Load() {
		return
	}
	var typ event.Type
	switch {
	case !had && has:
		typ = event.Activate
	case had && !has:
		typ = event.Deactivate
	case had && has:
		typ = event.Status
	default:
		return
	}
	r.enqueue(context.Background(), r.newEvent(event.Router, event.SourceID(gen), typ))
}

func (r *Router) newEvent(gen event.Generator, src event.SourceID, typ event.Type, opts ...event.Option) event.Event {
	if r.host != "" {
		opts = append([]event.Option{event.WithHost(r.host)}, opts...)
	}
	return event.New(gen, src, typ, opts...)
}
