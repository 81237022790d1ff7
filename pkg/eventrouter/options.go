package eventrouter

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/config"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/observability"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
)

// routerConfig holds construction options.
type routerConfig struct {
	logger        *slog.Logger
	metrics       observability.MetricsRecorder
	spans         observability.SpanManager
	clock         func() time.Time
	queue         *relay.Queue
	queueConfig   relay.QueueConfig
	recoverPanics bool
	onPanic       func(context.Context, *PanicError)
	notices       bool
	idle          time.Duration
	host          string
}

func defaultRouterConfig() routerConfig {
	return routerConfig{
		metrics:     observability.NoopMetrics{},
		spans:       observability.NoopSpanManager{},
		clock:       time.Now,
		queueConfig: relay.DefaultQueueConfig,
		notices:     true,
		idle:        time.Second,
	}
}

// Option configures a Router.
type Option func(*routerConfig)

// WithLogger sets the logger. Default: no logging.
func WithLogger(logger *slog.Logger) Option {
	return func(c *routerConfig) {
		c.logger = observability.EnrichLogger(logger, "eventrouter")
	}
}

// WithMetrics sets the metrics recorder. Default: observability.NoopMetrics.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *routerConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing sets the span manager. Default: observability.NoopSpanManager.
func WithTracing(s observability.SpanManager) Option {
	return func(c *routerConfig) {
		if s != nil {
			c.spans = s
		}
	}
}

// WithClock sets the time source for timers. Default: time.Now.
func WithClock(clock func() time.Time) Option {
	return func(c *routerConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithQueue makes the router drain q instead of creating its own queue.
func WithQueue(q *relay.Queue) Option {
	return func(c *routerConfig) {
		c.queue = q
	}
}

// WithQueueConfig configures the router's own relay queue. Its OnDrop hook
// is chained after the router's overflow logging.
func WithQueueConfig(qc relay.QueueConfig) Option {
	return func(c *routerConfig) {
		c.queueConfig = qc
	}
}

// WithRecoverPanics makes the router recover subscriber panics, log them
// and continue with the next subscriber. Default: false, panics propagate
// to the poster.
func WithRecoverPanics(recover bool) Option {
	return func(c *routerConfig) {
		c.recoverPanics = recover
	}
}

// WithPanicHandler sets a function called with each recovered subscriber
// panic. It implies WithRecoverPanics(true).
func WithPanicHandler(fn func(ctx context.Context, err *PanicError)) Option {
	return func(c *routerConfig) {
		c.onPanic = fn
		if fn != nil {
			c.recoverPanics = true
		}
	}
}

// WithSubscriptionNotices enables or disables Router generator events on
// subscription changes. Default: true.
func WithSubscriptionNotices(enabled bool) Option {
	return func(c *routerConfig) {
		c.notices = enabled
	}
}

// WithIdleInterval bounds how long Run sleeps when no timer is due.
// Default: 1s
func WithIdleInterval(d time.Duration) Option {
	return func(c *routerConfig) {
		if d > 0 {
			c.idle = d
		}
	}
}

// WithHost stamps host on the events the router creates itself: timer
// fires, subscription notices and PostEvent.
func WithHost(host string) Option {
	return func(c *routerConfig) {
		c.host = host
	}
}

// FromSettings translates loaded settings into options.
//
// Example:
//
//	s, err := config.LoadSettings(cfg)
//	r := eventrouter.New(append(eventrouter.FromSettings(s), eventrouter.WithLogger(logger))...)
func FromSettings(s config.Settings) []Option {
	return []Option{
		WithQueueConfig(relay.QueueConfig{Capacity: s.QueueCapacity, Overflow: s.Overflow}),
		WithRecoverPanics(s.RecoverPanics),
		WithSubscriptionNotices(s.SubscriptionNotices),
		WithIdleInterval(s.IdleInterval),
		WithHost(s.Host),
	}
}
