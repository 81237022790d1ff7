package subscription

import (
	"slices"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// Table maps subscription keys to ordered lists of handles.
// The zero value is not usable; call NewTable.
type Table[H comparable] struct {
	gens map[event.Generator]*generatorEntry[H]
	size int
}

type generatorEntry[H comparable] struct {
	all     []H
	sources map[event.SourceID]*sourceEntry[H]
}

type sourceEntry[H comparable] struct {
	all   []H
	types [event.NumTypes][]H
}

func (s *sourceEntry[H]) empty() bool {
	if len(s.all) > 0 {
		return false
	}
	for _, hs := range s.types {
		if len(hs) > 0 {
			return false
		}
	}
	return true
}

func (g *generatorEntry[H]) empty() bool {
	return len(g.all) == 0 && len(g.sources) == 0
}

// NewTable creates an empty table.
func NewTable[H comparable]() *Table[H] {
	return &Table[H]{gens: make(map[event.Generator]*generatorEntry[H])}
}

func isZero[H comparable](h H) bool {
	var zero H
	return h == zero
}

// Add appends h under key. Adding the same handle and key again creates an
// independent second subscription. Zero handles and invalid keys are
// ignored and reported by a false result.
func (t *Table[H]) Add(h H, key Key) bool {
	if isZero(h) || !key.Valid() {
		return false
	}
	g := t.gens[key.Generator]
	if g == nil {
		g = &generatorEntry[H]{sources: make(map[event.SourceID]*sourceEntry[H])}
		t.gens[key.Generator] = g
	}
	switch key.tier {
	case TierGenerator:
		g.all = append(g.all, h)
	case TierSource:
		s := g.source(key.Source)
		s.all = append(s.all, h)
	case TierExact:
		s := g.source(key.Source)
		s.types[key.Type] = append(s.types[key.Type], h)
	}
	t.size++
	return true
}

func (g *generatorEntry[H]) source(src event.SourceID) *sourceEntry[H] {
	s := g.sources[src]
	if s == nil {
		s = &sourceEntry[H]{}
		g.sources[src] = s
	}
	return s
}

// Remove deletes subscriptions of h under key and returns how many were
// removed. A generator key removes h from every tier of that generator; a
// source key removes h from that source's source and exact tiers; an exact
// key removes only exact matches.
func (t *Table[H]) Remove(h H, key Key) int {
	if isZero(h) || !key.Valid() {
		return 0
	}
	g := t.gens[key.Generator]
	if g == nil {
		return 0
	}
	var n int
	switch key.tier {
	case TierGenerator:
		n = g.removeAll(h)
	case TierSource:
		if s := g.sources[key.Source]; s != nil {
			n = s.removeAll(h)
			g.prune(key.Source)
		}
	case TierExact:
		if s := g.sources[key.Source]; s != nil {
			var k int
			s.types[key.Type], k = without(s.types[key.Type], h)
			n = k
			g.prune(key.Source)
		}
	}
	t.size -= n
	if g.empty() {
		delete(t.gens, key.Generator)
	}
	return n
}

// RemoveAll deletes every subscription of h and returns the generators that
// lost at least one, in ascending order.
func (t *Table[H]) RemoveAll(h H) []event.Generator {
	if isZero(h) {
		return nil
	}
	var affected []event.Generator
	for gen, g := range t.gens {
		n := g.removeAll(h)
		if n == 0 {
			continue
		}
		t.size -= n
		affected = append(affected, gen)
		if g.empty() {
			delete(t.gens, gen)
		}
	}
	slices.Sort(affected)
	return affected
}

func (g *generatorEntry[H]) removeAll(h H) int {
	var n int
	g.all, n = without(g.all, h)
	for src, s := range g.sources {
		n += s.removeAll(h)
		g.prune(src)
	}
	return n
}

func (s *sourceEntry[H]) removeAll(h H) int {
	var n, k int
	s.all, n = without(s.all, h)
	for i := range s.types {
		s.types[i], k = without(s.types[i], h)
		n += k
	}
	return n
}

func (g *generatorEntry[H]) prune(src event.SourceID) {
	if s := g.sources[src]; s != nil && s.empty() {
		delete(g.sources, src)
	}
}

// without removes every occurrence of h, keeping order.
func without[H comparable](hs []H, h H) ([]H, int) {
	out := hs[:0]
	for _, x := range hs {
		if x != h {
			out = append(out, x)
		}
	}
	n := len(hs) - len(out)
	clear(hs[len(out):])
	if len(out) == 0 {
		return nil, n
	}
	return out, n
}

// Match returns the handles subscribed to evt: exact subscriptions first,
// then source subscriptions, then generator subscriptions. The result is a
// fresh slice the caller may keep.
func (t *Table[H]) Match(evt event.Event) []H {
	g := t.gens[evt.Generator()]
	if g == nil {
		return nil
	}
	var exact, bySource []H
	if s := g.sources[evt.Source()]; s != nil {
		if evt.Type().Valid() {
			exact = s.types[evt.Type()]
		}
		bySource = s.all
	}
	total := len(exact) + len(bySource) + len(g.all)
	if total == 0 {
		return nil
	}
	out := make([]H, 0, total)
	out = append(out, exact...)
	out = append(out, bySource...)
	return append(out, g.all...)
}

// Contains reports whether h is currently subscribed to evt at any tier.
func (t *Table[H]) Contains(h H, evt event.Event) bool {
	if isZero(h) {
		return false
	}
	g := t.gens[evt.Generator()]
	if g == nil {
		return false
	}
	if slices.Contains(g.all, h) {
		return true
	}
	s := g.sources[evt.Source()]
	if s == nil {
		return false
	}
	if slices.Contains(s.all, h) {
		return true
	}
	return evt.Type().Valid() && slices.Contains(s.types[evt.Type()], h)
}

// HasAny reports whether any handle could receive an event under key. A
// generator subscription satisfies every narrower query of its generator,
// and a source query is satisfied by subscriptions to any type of that
// source.
func (t *Table[H]) HasAny(key Key) bool {
	if !key.Valid() {
		return false
	}
	g := t.gens[key.Generator]
	if g == nil {
		return false
	}
	switch key.tier {
	case TierGenerator:
		return true
	case TierSource:
		return len(g.all) > 0 || g.sources[key.Source] != nil
	default:
		if len(g.all) > 0 {
			return true
		}
		s := g.sources[key.Source]
		return s != nil && (len(s.all) > 0 || len(s.types[key.Type]) > 0)
	}
}

// SubscribedAny reports whether h holds any subscription inside key's scope.
func (t *Table[H]) SubscribedAny(h H, key Key) bool {
	if isZero(h) || !key.Valid() {
		return false
	}
	g := t.gens[key.Generator]
	if g == nil {
		return false
	}
	if slices.Contains(g.all, h) {
		return true
	}
	switch key.tier {
	case TierGenerator:
		for _, s := range g.sources {
			if s.holds(h) {
				return true
			}
		}
		return false
	case TierSource:
		s := g.sources[key.Source]
		return s != nil && s.holds(h)
	default:
		s := g.sources[key.Source]
		return s != nil && (slices.Contains(s.all, h) || slices.Contains(s.types[key.Type], h))
	}
}

// SubscribedAll reports whether h receives every event in key's scope,
// that is, whether one of its subscriptions is at least as broad as key.
func (t *Table[H]) SubscribedAll(h H, key Key) bool {
	if isZero(h) || !key.Valid() {
		return false
	}
	g := t.gens[key.Generator]
	if g == nil {
		return false
	}
	if slices.Contains(g.all, h) {
		return true
	}
	if key.tier == TierGenerator {
		return false
	}
	s := g.sources[key.Source]
	if s == nil {
		return false
	}
	if slices.Contains(s.all, h) {
		return true
	}
	return key.tier == TierExact && slices.Contains(s.types[key.Type], h)
}

func (s *sourceEntry[H]) holds(h H) bool {
	if slices.Contains(s.all, h) {
		return true
	}
	for _, hs := range s.types {
		if slices.Contains(hs, h) {
			return true
		}
	}
	return false
}

// Generators returns the generators with at least one subscription, in
// ascending order.
func (t *Table[H]) Generators() []event.Generator {
	out := make([]event.Generator, 0, len(t.gens))
	for g := range t.gens {
		out = append(out, g)
	}
	slices.Sort(out)
	return out
}

// Len returns the total number of subscriptions.
func (t *Table[H]) Len() int {
	return t.size
}

// Clear removes every subscription.
func (t *Table[H]) Clear() {
	clear(t.gens)
	t.size = 0
}
