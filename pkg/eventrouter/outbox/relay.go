package outbox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
)

// Relay appends posted events to an outbox channel. It implements
// forward.Relay and always suppresses local dispatch.
type Relay struct {
	store   Store
	channel string
}

var _ forward.Relay = (*Relay)(nil)

// NewRelay creates a relay writing to channel.
func NewRelay(store Store, channel string) *Relay {
	return &Relay{store: store, channel: channel}
}

// Relay stores evt.
func (r *Relay) Relay(ctx context.Context, evt event.Event) (bool, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return true, fmt.Errorf("encode %s: %w", evt.Description(), err)
	}
	return true, r.store.Append(ctx, r.channel, payload)
}
