package forward_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
)

type closingRelay struct {
	closed int
	err    error
}

func (c *closingRelay) Relay(context.Context, event.Event) (bool, error) { return true, nil }

func (c *closingRelay) Close() error {
	c.closed++
	return c.err
}

type recordingPoster struct {
	posts   []event.Event
	origins []forward.Origin
	err     error
}

func (p *recordingPoster) Post(ctx context.Context, evt event.Event) error {
	p.posts = append(p.posts, evt)
	p.origins = append(p.origins, forward.OriginFrom(ctx))
	return p.err
}

func TestOriginContext(t *testing.T) {
	assert.Equal(t, forward.Unspecified, forward.OriginFrom(context.Background()))

	ctx := forward.WithOrigin(context.Background(), forward.Motion)
	assert.Equal(t, forward.Motion, forward.OriginFrom(ctx))

	ctx = forward.WithOrigin(ctx, forward.Sound)
	assert.Equal(t, forward.Sound, forward.OriginFrom(ctx))
}

func TestOriginNames(t *testing.T) {
	for o := forward.Unspecified; o < forward.NumOrigins; o++ {
		parsed, ok := forward.ParseOrigin(o.String())
		require.True(t, ok)
		assert.Equal(t, o, parsed)
	}
	_, ok := forward.ParseOrigin("kernel")
	assert.False(t, ok)
	assert.Equal(t, "origin(9)", forward.Origin(9).String())
}

func TestTable_SetGetClear(t *testing.T) {
	tbl := forward.NewTable()
	assert.Nil(t, tbl.Get(forward.Motion))

	r := &closingRelay{}
	require.NoError(t, tbl.Set(forward.Motion, r))
	assert.Same(t, r, tbl.Get(forward.Motion))
	assert.Nil(t, tbl.Get(forward.Sound))

	require.NoError(t, tbl.Clear(forward.Motion))
	assert.Nil(t, tbl.Get(forward.Motion))
	assert.Equal(t, 1, r.closed)

	assert.Nil(t, tbl.Get(forward.NumOrigins))
	assert.NoError(t, tbl.Set(forward.NumOrigins, r))
}

func TestTable_ReplaceClosesPrevious(t *testing.T) {
	tbl := forward.NewTable()
	first := &closingRelay{err: errors.New("close failed")}
	second := &closingRelay{}

	require.NoError(t, tbl.Set(forward.Sound, first))
	assert.NoError(t, tbl.Set(forward.Sound, first), "re-installing must not close")
	assert.Equal(t, 0, first.closed)

	err := tbl.Set(forward.Sound, second)
	assert.EqualError(t, err, "close failed")
	assert.Equal(t, 1, first.closed)
	assert.Same(t, second, tbl.Get(forward.Sound))

	fn := forward.RelayFunc(func(context.Context, event.Event) (bool, error) { return false, nil })
	require.NoError(t, tbl.Set(forward.Sound, fn))
	require.NoError(t, tbl.Set(forward.Sound, fn))

	require.NoError(t, tbl.Close())
	assert.Nil(t, tbl.Get(forward.Sound))
}

func TestQueueRelay(t *testing.T) {
	q := relay.NewQueue(relay.QueueConfig{Capacity: 1, Overflow: relay.DropNewest})
	r := &forward.QueueRelay{Queue: q}

	suppressed, err := r.Relay(context.Background(), event.New(event.Sensor, 1, event.Status))
	assert.True(t, suppressed)
	assert.NoError(t, err)

	suppressed, err = r.Relay(context.Background(), event.New(event.Sensor, 2, event.Status))
	assert.True(t, suppressed)
	assert.ErrorIs(t, err, forward.ErrQueueRejected)
	assert.Equal(t, 1, q.Len())
}

func TestQueueRelay_Replace(t *testing.T) {
	q := relay.NewQueue(relay.DefaultQueueConfig)
	r := &forward.QueueRelay{Queue: q, Replace: true}

	for i := 0; i < 3; i++ {
		_, err := r.Relay(context.Background(), event.New(event.Sensor, 1, event.Status, event.WithMagnitude(float64(i))))
		require.NoError(t, err)
	}

	var got []event.Event
	q.Drain(func(evt event.Event) { got = append(got, evt) })
	require.Len(t, got, 1)
	assert.Equal(t, 2.0, got[0].Magnitude())
}

func TestPosterRelay(t *testing.T) {
	target := &recordingPoster{}
	r := &forward.PosterRelay{Target: target, Origin: forward.Main}

	ctx := forward.WithOrigin(context.Background(), forward.Motion)
	suppressed, err := r.Relay(ctx, event.New(event.Locomotion, 0, event.Activate))

	assert.True(t, suppressed)
	assert.NoError(t, err)
	require.Len(t, target.posts, 1)
	assert.Equal(t, forward.Main, target.origins[0])

	target.err = errors.New("closed")
	_, err = r.Relay(ctx, event.New(event.Locomotion, 0, event.Deactivate))
	assert.Error(t, err)
}

func TestTee(t *testing.T) {
	q := relay.NewQueue(relay.DefaultQueueConfig)
	tee := forward.Tee{Inner: &forward.QueueRelay{Queue: q}}

	suppressed, err := tee.Relay(context.Background(), event.New(event.Audio, 0, event.Status))
	assert.False(t, suppressed)
	assert.NoError(t, err)
	assert.Equal(t, 1, q.Len())
}
