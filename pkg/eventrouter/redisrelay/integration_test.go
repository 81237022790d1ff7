package redisrelay_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/config"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/forward"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/redisrelay"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/subscription"
)

// TestRedisBridge links two routers through a live Redis server. Set
// EVENTROUTER_REDIS_ADDR to run it.
func TestRedisBridge(t *testing.T) {
	addr := os.Getenv("EVENTROUTER_REDIS_ADDR")
	if addr == "" {
		t.Skip("EVENTROUTER_REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	settings := config.DefaultSettings().Redis
	settings.Addr = addr
	settings.Channel = "eventrouter-test-" + event.New(event.User, 0, event.Status).ID()

	client := redisrelay.NewClient(settings)
	defer client.Close()
	require.NoError(t, client.Ping(ctx).Err())

	sender := eventrouter.New(eventrouter.WithHost("sender"))
	defer sender.Close()
	receiver := eventrouter.New(eventrouter.WithHost("receiver"))
	defer receiver.Close()

	require.NoError(t, sender.SetForward(forward.Motion,
		redisrelay.NewPublisher(client, redisrelay.PublisherConfigFrom(settings))))

	subCfg := redisrelay.SubscriberConfigFrom(settings, "receiver")
	subCfg.Queue = receiver.Queue()
	sub := redisrelay.NewSubscriber(client, subCfg)

	got := make(chan event.Event, 1)
	receiver.Subscribe(eventrouter.ObserverFunc(func(_ context.Context, evt event.Event) {
		got <- evt
	}), subscription.ForGenerator(event.Locomotion))

	go func() { _ = sub.Run(ctx) }()
	go func() { _ = receiver.Run(ctx) }()

	// Pub/sub drops messages published before the subscription is live.
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, settings.Channel).Result()
		return err == nil && n[settings.Channel] > 0
	}, 5*time.Second, 20*time.Millisecond)

	evt := event.New(event.Locomotion, 1, event.Status, event.WithMagnitude(0.3), event.WithHost("sender"))
	require.NoError(t, sender.Post(forward.WithOrigin(ctx, forward.Motion), evt))

	select {
	case received := <-got:
		assert.Equal(t, evt.ID(), received.ID())
		assert.Equal(t, 0.3, received.Magnitude())
	case <-ctx.Done():
		t.Fatal("event did not cross the bridge")
	}
}
