/*
Package config loads router settings from YAML or JSON.

# Overview

Config wraps a map[string]any and provides typed accessors that return a
default when a key is missing or holds the wrong type. Keys may be dotted
paths into nested maps:

	cfg, err := config.FromFile("router.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	addr := cfg.String("redis.addr", "")              // redis: {addr: ...}
	idle := cfg.Duration("idle_interval", time.Second) // "250ms" or seconds

Settings gathers everything the router and its relays read:

	s, err := config.LoadSettings(cfg)
	router := eventrouter.New(eventrouter.FromSettings(s)...)

# Example File

	queue_capacity: 1024
	overflow_policy: drop_oldest
	recover_panics: true
	idle_interval: 100ms
	host: robot-1
	redis:
	  addr: localhost:6379
	  channel: robot-events
	  rate_per_sec: 200
	outbox:
	  path: /var/run/robot/outbox.db
	  channel: motion

# Type Coercion

Duration accepts a string parsed with time.ParseDuration, a number of
seconds, or a time.Duration. Int accepts floats without a fractional part,
since JSON decodes every number as float64.

# Thread Safety

Config is safe for concurrent reads. The underlying map must not be
modified after New.
*/
package config
