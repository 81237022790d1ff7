package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/subscription"
)

type handle struct{ name string }

func newHandle(name string) *handle { return &handle{name: name} }

func names(hs []*handle) []string {
	out := make([]string, len(hs))
	for i, h := range hs {
		out[i] = h.name
	}
	return out
}

func press(src event.SourceID) event.Event {
	return event.New(event.Button, src, event.Activate)
}

func TestKeyConstructors(t *testing.T) {
	tests := []struct {
		name string
		key  subscription.Key
		tier subscription.Tier
		str  string
	}{
		{"generator", subscription.ForGenerator(event.Button), subscription.TierGenerator, "(button,*,*)"},
		{"source", subscription.ForSource(event.Button, 2), subscription.TierSource, "(button,2,*)"},
		{"exact", subscription.ForType(event.Button, 2, event.Deactivate), subscription.TierExact, "(button,2,D)"},
		{"zero", subscription.Key{}, subscription.TierNone, "(none)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.tier, tt.key.Tier())
			assert.Equal(t, tt.str, tt.key.String())
			assert.Equal(t, tt.tier != subscription.TierNone, tt.key.Valid())
		})
	}

	assert.False(t, subscription.ForType(event.Button, 1, event.NumTypes).Valid())
}

func TestKeyMatches(t *testing.T) {
	evt := press(2)
	assert.True(t, subscription.ForGenerator(event.Button).Matches(evt))
	assert.True(t, subscription.ForSource(event.Button, 2).Matches(evt))
	assert.True(t, subscription.ForType(event.Button, 2, event.Activate).Matches(evt))
	assert.True(t, subscription.KeyFor(evt).Matches(evt))

	assert.False(t, subscription.ForGenerator(event.Timer).Matches(evt))
	assert.False(t, subscription.ForSource(event.Button, 3).Matches(evt))
	assert.False(t, subscription.ForType(event.Button, 2, event.Status).Matches(evt))
	assert.False(t, subscription.Key{}.Matches(evt))
}

func TestMatch_TierOrder(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	gen1, gen2 := newHandle("gen1"), newHandle("gen2")
	src1, src2 := newHandle("src1"), newHandle("src2")
	exact1, exact2 := newHandle("exact1"), newHandle("exact2")

	// Subscribe broad first so insertion order alone would give the wrong answer.
	tbl.Add(gen1, subscription.ForGenerator(event.Button))
	tbl.Add(src1, subscription.ForSource(event.Button, 1))
	tbl.Add(exact1, subscription.ForType(event.Button, 1, event.Activate))
	tbl.Add(gen2, subscription.ForGenerator(event.Button))
	tbl.Add(src2, subscription.ForSource(event.Button, 1))
	tbl.Add(exact2, subscription.ForType(event.Button, 1, event.Activate))

	got := tbl.Match(press(1))
	assert.Equal(t, []string{"exact1", "exact2", "src1", "src2", "gen1", "gen2"}, names(got))

	got = tbl.Match(press(2))
	assert.Equal(t, []string{"gen1", "gen2"}, names(got))

	got = tbl.Match(event.New(event.Button, 1, event.Deactivate))
	assert.Equal(t, []string{"src1", "src2", "gen1", "gen2"}, names(got))

	assert.Empty(t, tbl.Match(event.New(event.Timer, 1, event.Status)))
}

func TestMatch_Duplicates(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	h := newHandle("h")

	for i := 0; i < 3; i++ {
		require.True(t, tbl.Add(h, subscription.ForType(event.Button, 1, event.Activate)))
	}
	tbl.Add(h, subscription.ForGenerator(event.Button))

	assert.Len(t, tbl.Match(press(1)), 4)
	assert.Equal(t, 4, tbl.Len())
}

func TestMatch_ReturnsSnapshot(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	a, b := newHandle("a"), newHandle("b")
	tbl.Add(a, subscription.ForGenerator(event.Button))
	tbl.Add(b, subscription.ForGenerator(event.Button))

	snap := tbl.Match(press(0))
	tbl.Remove(a, subscription.ForGenerator(event.Button))
	tbl.Add(newHandle("c"), subscription.ForGenerator(event.Button))

	assert.Equal(t, []string{"a", "b"}, names(snap))
	assert.Equal(t, []string{"b", "c"}, names(tbl.Match(press(0))))
}

func TestRemove_Breadth(t *testing.T) {
	setup := func() (*subscription.Table[*handle], *handle, *handle) {
		tbl := subscription.NewTable[*handle]()
		h, other := newHandle("h"), newHandle("other")
		tbl.Add(h, subscription.ForGenerator(event.Button))
		tbl.Add(h, subscription.ForSource(event.Button, 1))
		tbl.Add(h, subscription.ForType(event.Button, 1, event.Activate))
		tbl.Add(h, subscription.ForType(event.Button, 1, event.Deactivate))
		tbl.Add(h, subscription.ForSource(event.Button, 2))
		tbl.Add(other, subscription.ForSource(event.Button, 1))
		return tbl, h, other
	}

	t.Run("generator removes every tier", func(t *testing.T) {
		tbl, h, other := setup()
		n := tbl.Remove(h, subscription.ForGenerator(event.Button))
		assert.Equal(t, 5, n)
		assert.False(t, tbl.SubscribedAny(h, subscription.ForGenerator(event.Button)))
		assert.Equal(t, []string{"other"}, names(tbl.Match(press(1))))
		assert.True(t, tbl.Contains(other, press(1)))
	})

	t.Run("source keeps generator tier", func(t *testing.T) {
		tbl, h, _ := setup()
		n := tbl.Remove(h, subscription.ForSource(event.Button, 1))
		assert.Equal(t, 3, n)
		assert.True(t, tbl.SubscribedAll(h, subscription.ForGenerator(event.Button)))
		assert.True(t, tbl.SubscribedAny(h, subscription.ForSource(event.Button, 2)))
		assert.Equal(t, []string{"other", "h"}, names(tbl.Match(press(1))))
	})

	t.Run("exact removes only exact", func(t *testing.T) {
		tbl, h, _ := setup()
		n := tbl.Remove(h, subscription.ForType(event.Button, 1, event.Activate))
		assert.Equal(t, 1, n)
		assert.Equal(t, []string{"h", "other", "h"}, names(tbl.Match(press(1))))
		assert.Len(t, tbl.Match(event.New(event.Button, 1, event.Deactivate)), 4)
	})

	t.Run("missing is a no-op", func(t *testing.T) {
		tbl, h, _ := setup()
		assert.Equal(t, 0, tbl.Remove(h, subscription.ForGenerator(event.Timer)))
		assert.Equal(t, 0, tbl.Remove(h, subscription.ForSource(event.Button, 9)))
		assert.Equal(t, 0, tbl.Remove(newHandle("stranger"), subscription.ForGenerator(event.Button)))
		assert.Equal(t, 0, tbl.Remove(nil, subscription.ForGenerator(event.Button)))
		assert.Equal(t, 6, tbl.Len())
	})
}

func TestRemove_DuplicatesRemovedTogether(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	h := newHandle("h")
	key := subscription.ForSource(event.Sensor, 4)
	tbl.Add(h, key)
	tbl.Add(h, key)

	assert.Equal(t, 2, tbl.Remove(h, key))
	assert.Equal(t, 0, tbl.Len())
	assert.False(t, tbl.HasAny(key))
}

func TestRemoveAll(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	h, other := newHandle("h"), newHandle("other")
	tbl.Add(h, subscription.ForGenerator(event.Timer))
	tbl.Add(h, subscription.ForSource(event.Button, 1))
	tbl.Add(h, subscription.ForType(event.Sensor, 1, event.Status))
	tbl.Add(other, subscription.ForGenerator(event.Button))

	affected := tbl.RemoveAll(h)

	assert.Equal(t, []event.Generator{event.Button, event.Sensor, event.Timer}, affected)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, []event.Generator{event.Button}, tbl.Generators())
	assert.Nil(t, tbl.RemoveAll(h))
	assert.Nil(t, tbl.RemoveAll(nil))
}

func TestAdd_IgnoresInvalid(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	assert.False(t, tbl.Add(nil, subscription.ForGenerator(event.Button)))
	assert.False(t, tbl.Add(newHandle("h"), subscription.Key{}))
	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Generators())
}

func TestContains(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	h := newHandle("h")
	tbl.Add(h, subscription.ForType(event.Button, 1, event.Activate))

	assert.True(t, tbl.Contains(h, press(1)))
	assert.False(t, tbl.Contains(h, press(2)))
	assert.False(t, tbl.Contains(h, event.New(event.Button, 1, event.Status)))
	assert.False(t, tbl.Contains(nil, press(1)))

	tbl.Remove(h, subscription.ForGenerator(event.Button))
	assert.False(t, tbl.Contains(h, press(1)))
}

func TestHasAny(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	h := newHandle("h")

	exact := subscription.ForType(event.Button, 1, event.Activate)
	source := subscription.ForSource(event.Button, 1)
	gen := subscription.ForGenerator(event.Button)

	assert.False(t, tbl.HasAny(gen))

	tbl.Add(h, exact)
	assert.True(t, tbl.HasAny(gen))
	assert.True(t, tbl.HasAny(source))
	assert.True(t, tbl.HasAny(exact))
	assert.False(t, tbl.HasAny(subscription.ForType(event.Button, 1, event.Deactivate)))
	assert.False(t, tbl.HasAny(subscription.ForSource(event.Button, 2)))

	tbl.Remove(h, exact)
	assert.False(t, tbl.HasAny(gen))

	tbl.Add(h, gen)
	assert.True(t, tbl.HasAny(subscription.ForType(event.Button, 7, event.Deactivate)))
	assert.True(t, tbl.HasAny(subscription.ForSource(event.Button, 99)))
	assert.False(t, tbl.HasAny(subscription.ForGenerator(event.Timer)))
	assert.False(t, tbl.HasAny(subscription.Key{}))
}

func TestSubscribedAnyAll(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	h := newHandle("h")
	tbl.Add(h, subscription.ForType(event.Button, 1, event.Activate))

	assert.True(t, tbl.SubscribedAny(h, subscription.ForGenerator(event.Button)))
	assert.True(t, tbl.SubscribedAny(h, subscription.ForSource(event.Button, 1)))
	assert.False(t, tbl.SubscribedAny(h, subscription.ForSource(event.Button, 2)))
	assert.False(t, tbl.SubscribedAll(h, subscription.ForGenerator(event.Button)))
	assert.False(t, tbl.SubscribedAll(h, subscription.ForSource(event.Button, 1)))
	assert.True(t, tbl.SubscribedAll(h, subscription.ForType(event.Button, 1, event.Activate)))

	tbl.Add(h, subscription.ForSource(event.Button, 1))
	assert.True(t, tbl.SubscribedAll(h, subscription.ForSource(event.Button, 1)))
	assert.True(t, tbl.SubscribedAll(h, subscription.ForType(event.Button, 1, event.Deactivate)))
	assert.False(t, tbl.SubscribedAll(h, subscription.ForGenerator(event.Button)))
}

func TestClear(t *testing.T) {
	tbl := subscription.NewTable[*handle]()
	tbl.Add(newHandle("a"), subscription.ForGenerator(event.Button))
	tbl.Add(newHandle("b"), subscription.ForSource(event.Timer, 1))

	tbl.Clear()

	assert.Equal(t, 0, tbl.Len())
	assert.Empty(t, tbl.Generators())
	assert.Empty(t, tbl.Match(press(0)))
}

func TestInterfaceHandles(t *testing.T) {
	type receiver interface{ id() string }
	tbl := subscription.NewTable[receiver]()
	var nilReceiver receiver
	assert.False(t, tbl.Add(nilReceiver, subscription.ForGenerator(event.Button)))
}
