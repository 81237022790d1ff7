package redisrelay

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/observability"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
)

// SubscribeClient is the part of a Redis client the subscriber needs.
type SubscribeClient interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// SubscriberConfig configures a Subscriber.
type SubscriberConfig struct {
	// Channel is the Redis channel to listen on.
	Channel string

	// Queue receives decoded events.
	Queue *relay.Queue

	// Replace submits with SubmitReplacing so only the newest reading of
	// each source waits in the queue.
	Replace bool

	// Host is this process's name. Events stamped with it were published
	// here and are ignored.
	Host string

	// Logger receives malformed payload reports. Default: no logging.
	Logger *slog.Logger
}

// SubscriberStats counts messages seen by a subscriber.
type SubscriberStats struct {
	Received  int64
	Submitted int64
	Malformed int64
	Looped    int64
	Rejected  int64
}

// Subscriber feeds events from a Redis channel into a relay queue.
type Subscriber struct {
	client SubscribeClient
	cfg    SubscriberConfig
	logger *slog.Logger

	received  atomic.Int64
	submitted atomic.Int64
	malformed atomic.Int64
	looped    atomic.Int64
	rejected  atomic.Int64
}

// NewSubscriber creates a subscriber. Call Run to start receiving.
func NewSubscriber(client SubscribeClient, cfg SubscriberConfig) *Subscriber {
	return &Subscriber{
		client: client,
		cfg:    cfg,
		logger: observability.EnrichLogger(cfg.Logger, "redisrelay"),
	}
}

// Run subscribes and submits events until ctx is done. It returns
// ctx.Err() on cancellation, the subscribe error if the subscription
// could not be confirmed, or ErrSubscriptionClosed.
func (s *Subscriber) Run(ctx context.Context) error {
	ps := s.client.Subscribe(ctx, s.cfg.Channel)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return err
	}

	msgs := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return ErrSubscriptionClosed
			}
			s.Handle([]byte(msg.Payload))
		}
	}
}

// Handle decodes one payload and submits it. It reports whether the event
// was queued.
func (s *Subscriber) Handle(payload []byte) bool {
	s.received.Add(1)
	evt, err := Decode(payload)
	if err != nil {
		s.malformed.Add(1)
		if s.logger != nil {
			s.logger.Warn("dropping malformed payload",
				slog.String("channel", s.cfg.Channel),
				slog.String("error", err.Error()),
			)
		}
		return false
	}
	if SameHost(evt, s.cfg.Host) {
		s.looped.Add(1)
		return false
	}

	var ok bool
	if s.cfg.Replace {
		ok = s.cfg.Queue.SubmitReplacing(evt)
	} else {
		ok = s.cfg.Queue.Submit(evt)
	}
	if !ok {
		s.rejected.Add(1)
		return false
	}
	s.submitted.Add(1)
	return true
}

// Stats returns a snapshot of the subscriber counters.
func (s *Subscriber) Stats() SubscriberStats {
	return SubscriberStats{
		Received:  s.received.Load(),
		Submitted: s.submitted.Load(),
		Malformed: s.malformed.Load(),
		Looped:    s.looped.Load(),
		Rejected:  s.rejected.Load(),
	}
}

// SameHost reports whether evt was published by host.
func SameHost(evt event.Event, host string) bool {
	return host != "" && evt.Host() == host
}
