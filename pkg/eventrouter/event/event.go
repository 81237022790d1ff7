package event

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// SourceID discriminates events of one generator. Its meaning is defined by
// the generator: a button index, a timer channel, a request handle.
type SourceID uint64

// Key is the (generator, source) pair shared by successive readings of the
// same source.
type Key struct {
	Generator Generator
	Source    SourceID
}

// String renders the key as "generator:source".
func (k Key) String() string {
	return k.Generator.String() + ":" + strconv.FormatUint(uint64(k.Source), 10)
}

// Event describes one occurrence. The zero value is not a valid event; use New.
type Event struct {
	id        string
	gen       Generator
	src       SourceID
	typ       Type
	timestamp time.Time
	duration  time.Duration
	name      string
	magnitude float64
	host      string
}

// Option configures event creation.
type Option func(*eventConfig)

type eventConfig struct {
	id           string
	timestamp    time.Time
	duration     time.Duration
	name         string
	magnitude    float64
	magnitudeSet bool
	host         string
}

// WithEventID sets a specific event ID (default: random UUID).
func WithEventID(id string) Option {
	return func(cfg *eventConfig) {
		cfg.id = id
	}
}

// WithTimestamp sets when the event happened (default: time.Now()).
func WithTimestamp(t time.Time) Option {
	return func(cfg *eventConfig) {
		cfg.timestamp = t
	}
}

// WithDuration sets how long the condition has held.
func WithDuration(d time.Duration) Option {
	return func(cfg *eventConfig) {
		cfg.duration = d
	}
}

// WithName overrides the generated name.
func WithName(name string) Option {
	return func(cfg *eventConfig) {
		cfg.name = name
	}
}

// WithMagnitude sets the numeric payload. Without it, Activate and Status
// events carry 1 and Deactivate events carry 0.
func WithMagnitude(m float64) Option {
	return func(cfg *eventConfig) {
		cfg.magnitude = m
		cfg.magnitudeSet = true
	}
}

// WithHost records the host an event was relayed from.
func WithHost(host string) Option {
	return func(cfg *eventConfig) {
		cfg.host = host
	}
}

// New creates an event.
func New(gen Generator, src SourceID, typ Type, opts ...Option) Event {
	cfg := &eventConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.New().String()
	}
	if cfg.timestamp.IsZero() {
		cfg.timestamp = time.Now()
	}
	if !cfg.magnitudeSet {
		cfg.magnitude = defaultMagnitude(typ)
	}
	return Event{
		id:        cfg.id,
		gen:       gen,
		src:       src,
		typ:       typ,
		timestamp: cfg.timestamp,
		duration:  cfg.duration,
		name:      cfg.name,
		magnitude: cfg.magnitude,
		host:      cfg.host,
	}
}

func defaultMagnitude(t Type) float64 {
	if t == Deactivate {
		return 0
	}
	return 1
}

// ID returns the unique event identifier.
func (e Event) ID() string { return e.id }

// Generator returns the generator.
func (e Event) Generator() Generator { return e.gen }

// Source returns the source ID.
func (e Event) Source() SourceID { return e.src }

// Type returns the event type.
func (e Event) Type() Type { return e.typ }

// Timestamp returns when the event happened.
func (e Event) Timestamp() time.Time { return e.timestamp }

// Duration returns how long the condition has held.
func (e Event) Duration() time.Duration { return e.duration }

// Magnitude returns the numeric payload.
func (e Event) Magnitude() float64 { return e.magnitude }

// Host returns the originating host of a relayed event, or "".
func (e Event) Host() string { return e.host }

// Key returns the event's (generator, source) pair.
func (e Event) Key() Key { return Key{Generator: e.gen, Source: e.src} }

// IsZero reports whether e was never initialized.
func (e Event) IsZero() bool { return e.id == "" }

// HasName reports whether a name was set explicitly.
func (e Event) HasName() bool { return e.name != "" }

// Name returns the explicit name if one was set, otherwise the generated
// description such as "(button,3,A)".
func (e Event) Name() string {
	if e.name != "" {
		return e.name
	}
	return e.Description()
}

// Description renders the event coordinates as "(generator,source,A)",
// appending the host for relayed events.
func (e Event) Description() string {
	if e.host != "" {
		return fmt.Sprintf("(%s,%d,%s,%s)", e.gen, e.src, e.typ.Abbr(), e.host)
	}
	return fmt.Sprintf("(%s,%d,%s)", e.gen, e.src, e.typ.Abbr())
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return e.Name()
}

// WithType returns a copy of e with a different type. The copy keeps the
// event ID so relays can correlate phases of one occurrence.
func (e Event) WithType(t Type) Event {
	e.typ = t
	return e
}

// WithName returns a copy of e with the given name.
func (e Event) WithName(name string) Event {
	e.name = name
	return e
}

// WithMagnitude returns a copy of e with the given magnitude.
func (e Event) WithMagnitude(m float64) Event {
	e.magnitude = m
	return e
}

// WithTimestamp returns a copy of e with the given timestamp.
func (e Event) WithTimestamp(t time.Time) Event {
	e.timestamp = t
	return e
}

// WithDuration returns a copy of e with the given duration.
func (e Event) WithDuration(d time.Duration) Event {
	e.duration = d
	return e
}

// WithHost returns a copy of e tagged with the originating host.
func (e Event) WithHost(host string) Event {
	e.host = host
	return e
}

// SameKey reports whether a and b share generator and source.
func SameKey(a, b Event) bool {
	return a.gen == b.gen && a.src == b.src
}
