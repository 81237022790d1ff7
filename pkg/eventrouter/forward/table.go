package forward

import (
	"context"
	"io"
	"reflect"
	"sync"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// Relay accepts events on behalf of another execution context.
type Relay interface {
	// Relay takes evt. suppressed reports that local dispatch must be
	// skipped. A non-nil error means evt was lost.
	Relay(ctx context.Context, evt event.Event) (suppressed bool, err error)
}

// Table holds one relay slot per origin. It is safe for concurrent use.
type Table struct {
	mu    sync.RWMutex
	slots [NumOrigins]Relay
}

// NewTable creates an empty forwarding table.
func NewTable() *Table {
	return &Table{}
}

// Set installs r for origin o, replacing and closing any previous relay
// that implements io.Closer. A nil r clears the slot.
func (t *Table) Set(o Origin, r Relay) error {
	if o >= NumOrigins {
		return nil
	}
	t.mu.Lock()
	prev := t.slots[o]
	t.slots[o] = r
	t.mu.Unlock()

	if c, ok := prev.(io.Closer); ok && !sameRelay(prev, r) {
		return c.Close()
	}
	return nil
}

// sameRelay compares relays without panicking on uncomparable dynamic
// types such as RelayFunc.
func sameRelay(a, b Relay) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	return ta == reflect.TypeOf(b) && ta.Comparable() && a == b
}

// Clear empties the slot for o.
func (t *Table) Clear(o Origin) error {
	return t.Set(o, nil)
}

// Get returns the relay for o, or nil.
func (t *Table) Get(o Origin) Relay {
	if o >= NumOrigins {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slots[o]
}

// Close clears every slot, closing relays that implement io.Closer, and
// returns the first close error.
func (t *Table) Close() error {
	var first error
	for o := Origin(0); o < NumOrigins; o++ {
		if err := t.Clear(o); err != nil && first == nil {
			first = err
		}
	}
	return first
}
