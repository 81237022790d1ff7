package relay

import (
	"errors"
	"fmt"
	"sync"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// ErrUnknownPolicy is returned by ParseOverflowPolicy.
var ErrUnknownPolicy = errors.New("unknown overflow policy")

// OverflowPolicy decides which event is lost when a bounded queue is full.
type OverflowPolicy int

const (
	// DropOldest evicts the oldest queued event, favoring fresh data.
	DropOldest OverflowPolicy = iota
	// DropNewest rejects the incoming event, favoring queued data.
	DropNewest
)

// String returns the policy name.
func (p OverflowPolicy) String() string {
	switch p {
	case DropOldest:
		return "drop_oldest"
	case DropNewest:
		return "drop_newest"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseOverflowPolicy parses "drop_oldest" or "drop_newest".
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch s {
	case "drop_oldest", "oldest":
		return DropOldest, nil
	case "drop_newest", "newest":
		return DropNewest, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// QueueConfig configures a Queue.
type QueueConfig struct {
	// Capacity bounds the number of queued events.
	// Default: 0 (unbounded)
	Capacity int

	// Overflow applies when Capacity is reached.
	// Default: DropOldest
	Overflow OverflowPolicy

	// OnDrop is called, outside the queue lock, with each event lost to
	// overflow.
	OnDrop func(evt event.Event)
}

// DefaultQueueConfig is an unbounded queue.
var DefaultQueueConfig = QueueConfig{}

// Stats counts queue activity since creation.
type Stats struct {
	Submitted int64
	Replaced  int64
	Dropped   int64
	Drained   int64
}

// Queue is a FIFO of events safe for concurrent producers.
type Queue struct {
	config QueueConfig

	mu     sync.Mutex
	events []event.Event
	closed bool
	stats  Stats

	ready chan struct{}
}

// NewQueue creates a queue.
func NewQueue(config QueueConfig) *Queue {
	if config.Capacity < 0 {
		config.Capacity = 0
	}
	return &Queue{
		config: config,
		ready:  make(chan struct{}, 1),
	}
}

// Submit appends evt. Returns false if evt was rejected because the queue
// is closed or full under DropNewest.
func (q *Queue) Submit(evt event.Event) bool {
	return q.submit(evt, false)
}

// SubmitReplacing removes every queued event sharing evt's generator and
// source, then appends evt.
func (q *Queue) SubmitReplacing(evt event.Event) bool {
	return q.submit(evt, true)
}

func (q *Queue) submit(evt event.Event, replace bool) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	if replace {
		kept := q.events[:0]
		for _, queued := range q.events {
			if !event.SameKey(queued, evt) {
				kept = append(kept, queued)
			}
		}
		q.stats.Replaced += int64(len(q.events) - len(kept))
		clear(q.events[len(kept):])
		q.events = kept
	}

	var dropped event.Event
	accepted := true
	if q.config.Capacity > 0 && len(q.events) >= q.config.Capacity {
		q.stats.Dropped++
		if q.config.Overflow == DropNewest {
			dropped, accepted = evt, false
		} else {
			dropped = q.events[0]
			q.events[0] = event.Event{}
			q.events = q.events[1:]
		}
	}
	if accepted {
		q.events = append(q.events, evt)
		q.stats.Submitted++
	}
	q.mu.Unlock()

	if !dropped.IsZero() && q.config.OnDrop != nil {
		q.config.OnDrop(dropped)
	}
	if accepted {
		q.signal()
	}
	return accepted
}

func (q *Queue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

// Ready returns a channel that receives a value after submissions. Several
// submissions may collapse into one wakeup, so a receiver should drain
// everything queued.
func (q *Queue) Ready() <-chan struct{} {
	return q.ready
}

// Drain removes every queued event and calls fn for each in FIFO order.
// fn runs without the queue lock, so it may submit; events it submits are
// left for the next drain. Returns the number of events delivered.
func (q *Queue) Drain(fn func(event.Event)) int {
	return q.DrainN(0, fn)
}

// DrainN is Drain limited to at most n events; n <= 0 means no limit.
func (q *Queue) DrainN(n int, fn func(event.Event)) int {
	q.mu.Lock()
	batch := q.events
	if n > 0 && n < len(batch) {
		batch = make([]event.Event, n)
		copy(batch, q.events)
		q.events = append(q.events[:0:0], q.events[n:]...)
	} else {
		q.events = nil
	}
	q.stats.Drained += int64(len(batch))
	remaining := len(q.events)
	q.mu.Unlock()

	if remaining > 0 {
		q.signal()
	}
	for _, evt := range batch {
		fn(evt)
	}
	return len(batch)
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Stats returns the activity counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Config returns the queue's configuration.
func (q *Queue) Config() QueueConfig {
	return q.config
}

// Close stops accepting submissions. Queued events can still be drained.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Closed reports whether Close was called.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
