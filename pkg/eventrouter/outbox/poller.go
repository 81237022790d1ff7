package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/config"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/observability"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
)

// PollerConfig configures a Poller.
type PollerConfig struct {
	// Channel is the outbox channel to take from.
	Channel string

	// Queue receives decoded events.
	Queue *relay.Queue

	// Interval is the time between polls in Run.
	// Default: 50ms
	Interval time.Duration

	// BatchSize caps the entries taken per poll.
	// Default: 256
	BatchSize int

	// Replace submits with SubmitReplacing.
	Replace bool

	// Logger receives poll failures. Default: no logging.
	Logger *slog.Logger
}

// PollerConfigFrom builds a PollerConfig from settings. The caller supplies
// the queue.
func PollerConfigFrom(s config.OutboxSettings) PollerConfig {
	return PollerConfig{
		Channel:   s.Channel,
		Interval:  s.PollInterval,
		BatchSize: s.BatchSize,
	}
}

// Poller moves events from an outbox channel into a relay queue.
type Poller struct {
	store  Store
	cfg    PollerConfig
	logger *slog.Logger

	taken     atomic.Int64
	malformed atomic.Int64
	rejected  atomic.Int64
}

// NewPoller creates a poller. Call Run or PollOnce to move events.
func NewPoller(store Store, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = 50 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 256
	}
	return &Poller{
		store:  store,
		cfg:    cfg,
		logger: observability.EnrichLogger(cfg.Logger, "outbox"),
	}
}

// PollOnce takes one batch and submits it, returning the number of events
// queued. Entries that do not decode are dropped.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	entries, err := p.store.Take(ctx, p.cfg.Channel, p.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	p.taken.Add(int64(len(entries)))

	queued := 0
	for _, e := range entries {
		var evt event.Event
		if err := json.Unmarshal(e.Payload, &evt); err != nil {
			p.malformed.Add(1)
			if p.logger != nil {
				p.logger.Warn("dropping malformed outbox entry",
					slog.String("channel", e.Channel),
					slog.Int64("seq", e.Seq),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		var ok bool
		if p.cfg.Replace {
			ok = p.cfg.Queue.SubmitReplacing(evt)
		} else {
			ok = p.cfg.Queue.Submit(evt)
		}
		if !ok {
			p.rejected.Add(1)
			continue
		}
		queued++
	}
	return queued, nil
}

// Run polls until ctx is done, then returns ctx.Err(). A full batch is
// followed immediately by another poll. Store errors are logged and the
// poll is retried on the next interval.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		for {
			before := p.taken.Load()
			if _, err := p.PollOnce(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if p.logger != nil {
					p.logger.Warn("outbox poll failed",
						slog.String("channel", p.cfg.Channel),
						slog.String("error", err.Error()),
					)
				}
				if errors.Is(err, ErrStoreClosed) {
					return err
				}
				break
			}
			if p.taken.Load()-before < int64(p.cfg.BatchSize) {
				break
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Taken returns how many entries the poller has removed from the store.
func (p *Poller) Taken() int64 {
	return p.taken.Load()
}

// Malformed returns how many entries failed to decode.
func (p *Poller) Malformed() int64 {
	return p.malformed.Load()
}

// Rejected returns how many decoded events the queue refused.
func (p *Poller) Rejected() int64 {
	return p.rejected.Load()
}
