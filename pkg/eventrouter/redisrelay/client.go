package redisrelay

import (
	"github.com/redis/go-redis/v9"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/config"
)

// NewClient creates a Redis client from settings.
func NewClient(s config.RedisSettings) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     s.Addr,
		Password: s.Password,
		DB:       s.DB,
	})
}

// PublisherConfigFrom builds a PublisherConfig from settings.
func PublisherConfigFrom(s config.RedisSettings) PublisherConfig {
	return PublisherConfig{
		Channel:    s.Channel,
		Suppress:   true,
		RatePerSec: s.RatePerSec,
		Burst:      s.Burst,
	}
}

// SubscriberConfigFrom builds a SubscriberConfig from settings. The caller
// supplies the queue.
func SubscriberConfigFrom(s config.RedisSettings, host string) SubscriberConfig {
	return SubscriberConfig{
		Channel: s.Channel,
		Replace: s.Replace,
		Host:    host,
	}
}
