package timer

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// Infinite is returned by TimeUntilNext when no timer is scheduled.
const Infinite = time.Duration(math.MaxInt64)

// Info describes a scheduled timer.
type Info[O comparable] struct {
	Owner  O
	Source event.SourceID
	Delay  time.Duration
	Repeat bool
	Next   time.Time
}

// Fired is a timer that came due during Tick.
type Fired[O comparable] struct {
	Owner  O
	Source event.SourceID
	Delay  time.Duration
	Repeat bool
	// Scheduled is the deadline the timer fired for, which may be earlier
	// than the tick time.
	Scheduled time.Time

	entry *entry[O]
}

type entryKey[O comparable] struct {
	owner O
	src   event.SourceID
}

type entry[O comparable] struct {
	key       entryKey[O]
	delay     time.Duration
	repeat    bool
	next      time.Time
	seq       uint64
	cancelled bool
}

func (e *entry[O]) info() Info[O] {
	return Info[O]{
		Owner:  e.key.owner,
		Source: e.key.src,
		Delay:  e.delay,
		Repeat: e.repeat,
		Next:   e.next,
	}
}

// Scheduler keeps timers ordered by their next deadline.
type Scheduler[O comparable] struct {
	entries  []*entry[O]
	index    map[entryKey[O]]*entry[O]
	inflight map[*entry[O]]struct{}
	seq      uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler[O comparable]() *Scheduler[O] {
	return &Scheduler[O]{
		index:    make(map[entryKey[O]]*entry[O]),
		inflight: make(map[*entry[O]]struct{}),
	}
}

func compareEntries[O comparable](a, b *entry[O]) int {
	if c := a.next.Compare(b.next); c != 0 {
		return c
	}
	return cmp.Compare(a.seq, b.seq)
}

func (s *Scheduler[O]) insert(e *entry[O]) {
	i, _ := slices.BinarySearchFunc(s.entries, e, compareEntries[O])
	s.entries = slices.Insert(s.entries, i, e)
}

func (s *Scheduler[O]) unlink(e *entry[O]) {
	i, found := slices.BinarySearchFunc(s.entries, e, compareEntries[O])
	if found && s.entries[i] == e {
		s.entries = slices.Delete(s.entries, i, i+1)
		return
	}
	if i = slices.Index(s.entries, e); i >= 0 {
		s.entries = slices.Delete(s.entries, i, i+1)
	}
}

// Schedule starts or replaces the (owner, src) timer so it next fires at
// now+delay. A negative delay cancels the timer instead. Returns true if a
// timer is scheduled afterwards.
func (s *Scheduler[O]) Schedule(owner O, src event.SourceID, delay time.Duration, repeat bool, now time.Time) bool {
	var zero O
	if owner == zero {
		return false
	}
	if delay < 0 {
		s.Cancel(owner, src)
		return false
	}
	key := entryKey[O]{owner: owner, src: src}
	if e, ok := s.index[key]; ok {
		s.unlink(e)
		e.delay = delay
		e.repeat = repeat
		e.next = now.Add(delay)
		s.insert(e)
		return true
	}
	s.seq++
	e := &entry[O]{
		key:    key,
		delay:  delay,
		repeat: repeat,
		next:   now.Add(delay),
		seq:    s.seq,
	}
	s.index[key] = e
	s.insert(e)
	return true
}

// Cancel removes the (owner, src) timer. It also invalidates fires of that
// timer returned by Tick and not yet released with Done.
func (s *Scheduler[O]) Cancel(owner O, src event.SourceID) bool {
	key := entryKey[O]{owner: owner, src: src}
	found := s.cancelInflight(func(e *entry[O]) bool { return e.key == key }) > 0
	if e, ok := s.index[key]; ok {
		s.drop(e)
		found = true
	}
	return found
}

// CancelAll removes every timer of owner and returns how many were removed.
func (s *Scheduler[O]) CancelAll(owner O) int {
	n := s.cancelInflight(func(e *entry[O]) bool { return e.key.owner == owner })
	for key, e := range s.index {
		if key.owner == owner {
			s.drop(e)
			n++
		}
	}
	return n
}

// Reset removes every timer.
func (s *Scheduler[O]) Reset() {
	for _, e := range s.entries {
		e.cancelled = true
	}
	s.cancelInflight(func(*entry[O]) bool { return true })
	s.entries = nil
	clear(s.index)
}

func (s *Scheduler[O]) drop(e *entry[O]) {
	e.cancelled = true
	delete(s.index, e.key)
	s.unlink(e)
}

func (s *Scheduler[O]) cancelInflight(match func(*entry[O]) bool) int {
	n := 0
	for e := range s.inflight {
		if !e.cancelled && match(e) {
			e.cancelled = true
			n++
		}
	}
	return n
}

// Tick returns the timers due at or before now, earliest first. Repeating
// timers move to their first deadline after now; one-shot timers are
// removed. A repeating timer with zero delay fires on every tick.
func (s *Scheduler[O]) Tick(now time.Time) []Fired[O] {
	var fired []Fired[O]
	for len(s.entries) > 0 && !s.entries[0].next.After(now) {
		e := s.entries[0]
		s.entries = s.entries[1:]
		fired = append(fired, Fired[O]{
			Owner:     e.key.owner,
			Source:    e.key.src,
			Delay:     e.delay,
			Repeat:    e.repeat,
			Scheduled: e.next,
			entry:     e,
		})
		if !e.repeat {
			delete(s.index, e.key)
			s.inflight[e] = struct{}{}
			continue
		}
		e.next = advance(e.next, e.delay, now)
		s.insert(e)
	}
	if len(s.entries) == 0 {
		s.entries = nil
	}
	return fired
}

// advance returns the first deadline after now on the grid next+k*delay.
func advance(next time.Time, delay time.Duration, now time.Time) time.Time {
	if delay <= 0 {
		return now.Add(time.Nanosecond)
	}
	missed := now.Sub(next) / delay
	next = next.Add((missed + 1) * delay)
	for !next.After(now) {
		next = next.Add(delay)
	}
	return next
}

// Done releases a one-shot fire once it has been delivered or skipped.
// Until then Cancel and CancelAll still find it.
func (s *Scheduler[O]) Done(f Fired[O]) {
	if f.entry != nil {
		delete(s.inflight, f.entry)
	}
}

// Pending returns the number of one-shot fires not yet released with Done.
func (s *Scheduler[O]) Pending() int {
	return len(s.inflight)
}

// Valid reports whether f may still be delivered: its timer has not been
// cancelled since Tick returned it.
func (s *Scheduler[O]) Valid(f Fired[O]) bool {
	return f.entry != nil && !f.entry.cancelled
}

// Next returns the earliest deadline.
func (s *Scheduler[O]) Next() (time.Time, bool) {
	if len(s.entries) == 0 {
		return time.Time{}, false
	}
	return s.entries[0].next, true
}

// TimeUntilNext returns how long the host loop may sleep before the next
// deadline: zero if a timer is already due, Infinite if none is scheduled.
func (s *Scheduler[O]) TimeUntilNext(now time.Time) time.Duration {
	next, ok := s.Next()
	if !ok {
		return Infinite
	}
	if d := next.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Lookup returns the (owner, src) timer.
func (s *Scheduler[O]) Lookup(owner O, src event.SourceID) (Info[O], bool) {
	e, ok := s.index[entryKey[O]{owner: owner, src: src}]
	if !ok {
		return Info[O]{}, false
	}
	return e.info(), true
}

// NextFor returns the owner's timer with the earliest deadline.
func (s *Scheduler[O]) NextFor(owner O) (Info[O], bool) {
	for _, e := range s.entries {
		if e.key.owner == owner {
			return e.info(), true
		}
	}
	return Info[O]{}, false
}

// Timers returns every scheduled timer ordered by deadline.
func (s *Scheduler[O]) Timers() []Info[O] {
	out := make([]Info[O], len(s.entries))
	for i, e := range s.entries {
		out[i] = e.info()
	}
	return out
}

// Len returns the number of scheduled timers.
func (s *Scheduler[O]) Len() int {
	return len(s.entries)
}
