package subscription

import (
	"fmt"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// Tier is the specificity level of a subscription key.
type Tier uint8

const (
	// TierNone marks the zero Key, which matches nothing.
	TierNone Tier = iota
	// TierGenerator matches every event of a generator.
	TierGenerator
	// TierSource matches every event of one source of a generator.
	TierSource
	// TierExact matches one generator, source and type.
	TierExact
)

// String returns the tier name.
func (t Tier) String() string {
	switch t {
	case TierGenerator:
		return "generator"
	case TierSource:
		return "source"
	case TierExact:
		return "exact"
	default:
		return "none"
	}
}

// Key selects the events a subscription applies to. Fields below the key's
// tier are ignored.
type Key struct {
	Generator event.Generator
	Source    event.SourceID
	Type      event.Type
	tier      Tier
}

// ForGenerator returns a key matching every event of g.
func ForGenerator(g event.Generator) Key {
	return Key{Generator: g, tier: TierGenerator}
}

// ForSource returns a key matching every event of source src of g.
func ForSource(g event.Generator, src event.SourceID) Key {
	return Key{Generator: g, Source: src, tier: TierSource}
}

// ForType returns a key matching events of g and src with type t.
func ForType(g event.Generator, src event.SourceID, t event.Type) Key {
	return Key{Generator: g, Source: src, Type: t, tier: TierExact}
}

// KeyFor returns the exact key of evt.
func KeyFor(evt event.Event) Key {
	return ForType(evt.Generator(), evt.Source(), evt.Type())
}

// Tier returns the key's specificity.
func (k Key) Tier() Tier { return k.tier }

// Valid reports whether k was built by one of the constructors.
func (k Key) Valid() bool {
	if k.tier == TierExact && !k.Type.Valid() {
		return false
	}
	return k.tier >= TierGenerator && k.tier <= TierExact
}

// Matches reports whether evt falls under k.
func (k Key) Matches(evt event.Event) bool {
	switch k.tier {
	case TierGenerator:
		return evt.Generator() == k.Generator
	case TierSource:
		return evt.Generator() == k.Generator && evt.Source() == k.Source
	case TierExact:
		return evt.Generator() == k.Generator && evt.Source() == k.Source && evt.Type() == k.Type
	default:
		return false
	}
}

// String renders the key with "*" for wildcard fields.
func (k Key) String() string {
	switch k.tier {
	case TierGenerator:
		return fmt.Sprintf("(%s,*,*)", k.Generator)
	case TierSource:
		return fmt.Sprintf("(%s,%d,*)", k.Generator, k.Source)
	case TierExact:
		return fmt.Sprintf("(%s,%d,%s)", k.Generator, k.Source, k.Type.Abbr())
	default:
		return "(none)"
	}
}
