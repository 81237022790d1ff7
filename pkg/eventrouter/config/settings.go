package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
)

// ErrInvalidSettings wraps every LoadSettings validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings holds everything the router and its relays read from config.
type Settings struct {
	// QueueCapacity bounds the relay queue; 0 means unbounded.
	QueueCapacity int
	// Overflow applies when the relay queue is full.
	Overflow relay.OverflowPolicy
	// RecoverPanics keeps dispatching after a subscriber panics.
	RecoverPanics bool
	// SubscriptionNotices posts Router events when subscriber sets change.
	SubscriptionNotices bool
	// IdleInterval bounds how long the host loop sleeps without timers.
	IdleInterval time.Duration
	// Host names this process on relayed events.
	Host string

	Redis  RedisSettings
	Outbox OutboxSettings
}

// RedisSettings configures the network relay. An empty Addr disables it.
type RedisSettings struct {
	Addr       string
	Password   string
	DB         int
	Channel    string
	RatePerSec float64
	Burst      int
	Replace    bool
}

// OutboxSettings configures the cross-process relay. An empty Path disables it.
type OutboxSettings struct {
	Path         string
	Channel      string
	PollInterval time.Duration
	BatchSize    int
}

// DefaultSettings returns the settings used for missing keys.
func DefaultSettings() Settings {
	return Settings{
		Overflow:            relay.DropOldest,
		SubscriptionNotices: true,
		IdleInterval:        time.Second,
		Redis: RedisSettings{
			Channel: "eventrouter",
			Burst:   1,
		},
		Outbox: OutboxSettings{
			Channel:      "default",
			PollInterval: 50 * time.Millisecond,
			BatchSize:    256,
		},
	}
}

// LoadSettings reads Settings from c, filling gaps from DefaultSettings.
func LoadSettings(c Config) (Settings, error) {
	s := DefaultSettings()

	s.QueueCapacity = c.Int("queue_capacity", s.QueueCapacity)
	if policy := c.String("overflow_policy", ""); policy != "" {
		p, err := relay.ParseOverflowPolicy(policy)
		if err != nil {
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalidSettings, err)
		}
		s.Overflow = p
	}
	s.RecoverPanics = c.Bool("recover_panics", s.RecoverPanics)
	s.SubscriptionNotices = c.Bool("subscription_notices", s.SubscriptionNotices)
	s.IdleInterval = c.Duration("idle_interval", s.IdleInterval)
	s.Host = c.String("host", s.Host)

	r := c.Sub("redis")
	s.Redis.Addr = r.String("addr", s.Redis.Addr)
	s.Redis.Password = r.String("password", s.Redis.Password)
	s.Redis.DB = r.Int("db", s.Redis.DB)
	s.Redis.Channel = r.String("channel", s.Redis.Channel)
	s.Redis.RatePerSec = r.Float("rate_per_sec", s.Redis.RatePerSec)
	s.Redis.Burst = r.Int("burst", s.Redis.Burst)
	s.Redis.Replace = r.Bool("replace", s.Redis.Replace)

	o := c.Sub("outbox")
	s.Outbox.Path = o.String("path", s.Outbox.Path)
	s.Outbox.Channel = o.String("channel", s.Outbox.Channel)
	s.Outbox.PollInterval = o.Duration("poll_interval", s.Outbox.PollInterval)
	s.Outbox.BatchSize = o.Int("batch_size", s.Outbox.BatchSize)

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate reports settings no component can run with.
func (s Settings) Validate() error {
	switch {
	case s.QueueCapacity < 0:
		return fmt.Errorf("%w: queue_capacity must be >= 0, got %d", ErrInvalidSettings, s.QueueCapacity)
	case s.IdleInterval <= 0:
		return fmt.Errorf("%w: idle_interval must be positive, got %s", ErrInvalidSettings, s.IdleInterval)
	case s.Redis.RatePerSec < 0:
		return fmt.Errorf("%w: redis.rate_per_sec must be >= 0", ErrInvalidSettings)
	case s.Redis.Addr != "" && s.Redis.Channel == "":
		return fmt.Errorf("%w: redis.channel is required with redis.addr", ErrInvalidSettings)
	case s.Outbox.Path != "" && s.Outbox.PollInterval <= 0:
		return fmt.Errorf("%w: outbox.poll_interval must be positive", ErrInvalidSettings)
	case s.Outbox.BatchSize <= 0:
		return fmt.Errorf("%w: outbox.batch_size must be positive", ErrInvalidSettings)
	}
	return nil
}
