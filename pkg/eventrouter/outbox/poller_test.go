package outbox_test

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/config"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/outbox"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/subscription"
)

func TestRelayAndPollOnce(t *testing.T) {
	ctx := context.Background()
	store := outbox.NewMemoryStore()
	defer store.Close()

	rl := outbox.NewRelay(store, "sound")
	evt := event.New(event.Audio, 3, event.Activate, event.WithName("beep.wav"))
	suppressed, err := rl.Relay(ctx, evt)
	require.NoError(t, err)
	assert.True(t, suppressed)

	require.NoError(t, store.Append(ctx, "sound", []byte("garbage")))

	var buf bytes.Buffer
	q := relay.NewQueue(relay.DefaultQueueConfig)
	p := outbox.NewPoller(store, outbox.PollerConfig{
		Channel: "sound",
		Queue:   q,
		Logger:  slog.New(slog.NewTextHandler(&buf, nil)),
	})

	n, err := p.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, int64(2), p.Taken())
	assert.Equal(t, int64(1), p.Malformed())
	assert.Contains(t, buf.String(), "dropping malformed outbox entry")

	var got []event.Event
	q.Drain(func(e event.Event) { got = append(got, e) })
	require.Len(t, got, 1)
	assert.Equal(t, evt.ID(), got[0].ID())
	assert.Equal(t, "beep.wav", got[0].Name())
}

func TestPoller_ReplaceAndRejected(t *testing.T) {
	ctx := context.Background()
	store := outbox.NewMemoryStore()
	rl := outbox.NewRelay(store, "main")

	for i := range 3 {
		_, err := rl.Relay(ctx, event.New(event.Power, 1, event.Status, event.WithMagnitude(float64(i))))
		require.NoError(t, err)
	}

	q := relay.NewQueue(relay.DefaultQueueConfig)
	p := outbox.NewPoller(store, outbox.PollerConfig{Channel: "main", Queue: q, Replace: true})
	n, err := p.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, q.Len(), "readings of one source collapse")

	q.Close()
	_, err = rl.Relay(ctx, event.New(event.Power, 1, event.Status))
	require.NoError(t, err)
	n, err = p.PollOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), p.Rejected())
}

func TestPoller_RunStopsOnClosedStore(t *testing.T) {
	store := outbox.NewMemoryStore()
	require.NoError(t, store.Close())
	p := outbox.NewPoller(store, outbox.PollerConfig{Channel: "main", Queue: relay.NewQueue(relay.DefaultQueueConfig)})
	assert.ErrorIs(t, p.Run(context.Background()), outbox.ErrStoreClosed)
}

func TestPollerConfigFrom(t *testing.T) {
	s := config.DefaultSettings().Outbox
	cfg := outbox.PollerConfigFrom(s)
	assert.Equal(t, "default", cfg.Channel)
	assert.Equal(t, 50*time.Millisecond, cfg.Interval)
	assert.Equal(t, 256, cfg.BatchSize)
}

// TestRoutersThroughSQLite connects two routers the way two processes
// would: each opens the same database file.
func TestRoutersThroughSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	senderStore, err := outbox.NewSQLiteStore(path)
	require.NoError(t, err)
	defer senderStore.Close()
	receiverStore, err := outbox.NewSQLiteStore(path)
	require.NoError(t, err)
	defer receiverStore.Close()

	sender := eventrouter.New()
	defer sender.Close()
	receiver := eventrouter.New()
	defer receiver.Close()

	require.NoError(t, sender.SetForward(forward.Sound, outbox.NewRelay(senderStore, "sound")))

	got := make(chan event.Event, 2)
	receiver.Subscribe(eventrouter.ObserverFunc(func(_ context.Context, evt event.Event) {
		got <- evt
	}), subscription.ForGenerator(event.Audio))

	p := outbox.NewPoller(receiverStore, outbox.PollerConfig{
		Channel:  "sound",
		Queue:    receiver.Queue(),
		Interval: 5 * time.Millisecond,
	})
	go func() { _ = p.Run(ctx) }()
	go func() { _ = receiver.Run(ctx) }()

	soundCtx := forward.WithOrigin(ctx, forward.Sound)
	require.NoError(t, sender.Post(soundCtx, event.New(event.Audio, 1, event.Activate)))
	require.NoError(t, sender.Post(soundCtx, event.New(event.Audio, 2, event.Activate)))

	for _, want := range []event.SourceID{1, 2} {
		select {
		case evt := <-got:
			assert.Equal(t, want, evt.Source())
		case <-ctx.Done():
			t.Fatal("event did not arrive")
		}
	}
}
