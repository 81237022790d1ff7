package redisrelay

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	rerrors "github.com/randalmurphal/eventrouter/pkg/eventrouter/errors"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/observability"
)

// PublishClient is the part of a Redis client the publisher needs.
// *redis.Client and *redis.ClusterClient satisfy it.
type PublishClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	// Channel is the Redis channel events are published to.
	Channel string

	// Suppress makes the publisher take over the event: the local router
	// skips dispatching it.
	Suppress bool

	// RatePerSec limits publishes; 0 disables the limit. Events over the
	// limit are dropped with ErrThrottled.
	RatePerSec float64

	// Burst is the limiter bucket size (default: 1).
	Burst int

	// Retry governs republishing after transient failures.
	// Default: errors.DefaultRetry
	Retry *rerrors.RetryConfig

	// Logger receives publishes that needed retries. Failures are returned,
	// not logged; the router logs them with their origin. Default: no logging.
	Logger *slog.Logger
}

// Publisher publishes events to a Redis channel. It implements
// forward.Relay.
type Publisher struct {
	client   PublishClient
	channel  string
	suppress bool
	limiter  *rate.Limiter
	retry    rerrors.RetryConfig
	logger   *slog.Logger
}

var _ forward.Relay = (*Publisher)(nil)

// NewPublisher creates a publisher writing to cfg.Channel.
func NewPublisher(client PublishClient, cfg PublisherConfig) *Publisher {
	p := &Publisher{
		client:   client,
		channel:  cfg.Channel,
		suppress: cfg.Suppress,
		retry:    rerrors.DefaultRetry,
		logger:   observability.EnrichLogger(cfg.Logger, "redisrelay"),
	}
	if cfg.Retry != nil {
		p.retry = *cfg.Retry
	}
	if cfg.RatePerSec > 0 {
		p.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), max(cfg.Burst, 1))
	}
	return p
}

// Relay publishes evt. Failures are returned as *PublishError; the event
// is not retried beyond the configured policy.
func (p *Publisher) Relay(ctx context.Context, evt event.Event) (bool, error) {
	return p.suppress, p.Publish(ctx, evt)
}

// Publish encodes and publishes evt, retrying transient failures.
func (p *Publisher) Publish(ctx context.Context, evt event.Event) error {
	if p.limiter != nil && !p.limiter.Allow() {
		return &PublishError{
			Channel: p.channel,
			Event:   evt,
			Err:     rerrors.Throttled(ErrThrottled, "redis publish"),
		}
	}

	payload, err := Encode(evt)
	if err != nil {
		return &PublishError{Channel: p.channel, Event: evt, Err: rerrors.Permanent(err, "encode")}
	}

	result := rerrors.WithRetryContext(ctx, p.retry, func(ctx context.Context) (int64, error) {
		return p.client.Publish(ctx, p.channel, payload).Result()
	})
	if result.Err != nil {
		return &PublishError{Channel: p.channel, Event: evt, Attempts: result.Attempts, Err: result.Err}
	}
	if result.Attempts > 1 && p.logger != nil {
		p.logger.Debug("redis publish retried",
			append(observability.EventAttrs(evt),
				slog.String("channel", p.channel),
				slog.Int("attempts", result.Attempts))...)
	}
	return nil
}
