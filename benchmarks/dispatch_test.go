package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/relay"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/subscription"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/timer"
)

func noopObserver() eventrouter.Observer {
	return eventrouter.ObserverFunc(func(context.Context, event.Event) {})
}

func newRouter(b *testing.B) *eventrouter.Router {
	b.Helper()
	r := eventrouter.New(eventrouter.WithSubscriptionNotices(false))
	b.Cleanup(func() { _ = r.Close() })
	return r
}

// routerWithObservers subscribes n observers spread across the three tiers.
func routerWithObservers(b *testing.B, n int) *eventrouter.Router {
	r := newRouter(b)
	keys := []subscription.Key{
		subscription.ForType(event.Button, 1, event.Activate),
		subscription.ForSource(event.Button, 1),
		subscription.ForGenerator(event.Button),
	}
	for i := 0; i < n; i++ {
		r.Subscribe(noopObserver(), keys[i%len(keys)])
	}
	return r
}

func benchmarkPost(b *testing.B, observers int) {
	r := routerWithObservers(b, observers)
	ctx := context.Background()
	evt := event.New(event.Button, 1, event.Activate)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Post(ctx, evt)
	}
}

// BenchmarkPost_NoSubscribers measures posting an event nobody listens to.
func BenchmarkPost_NoSubscribers(b *testing.B) {
	benchmarkPost(b, 0)
}

// BenchmarkPost_1 measures delivery to a single observer.
func BenchmarkPost_1(b *testing.B) {
	benchmarkPost(b, 1)
}

// BenchmarkPost_10 measures delivery to 10 observers across tiers.
func BenchmarkPost_10(b *testing.B) {
	benchmarkPost(b, 10)
}

// BenchmarkPost_100 measures delivery to 100 observers across tiers.
func BenchmarkPost_100(b *testing.B) {
	benchmarkPost(b, 100)
}

// BenchmarkPost_WithInterceptor measures the cost of one passing interceptor.
func BenchmarkPost_WithInterceptor(b *testing.B) {
	r := routerWithObservers(b, 3)
	r.Intercept(eventrouter.InterceptorFunc(func(context.Context, event.Event) bool {
		return false
	}), subscription.ForGenerator(event.Button))
	ctx := context.Background()
	evt := event.New(event.Button, 1, event.Activate)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Post(ctx, evt)
	}
}

// BenchmarkPost_Nested_10 measures a callback posting a chain of 10 events.
func BenchmarkPost_Nested_10(b *testing.B) {
	r := newRouter(b)
	r.Subscribe(eventrouter.ObserverFunc(func(ctx context.Context, evt event.Event) {
		if evt.Source() < 9 {
			_ = r.Post(ctx, event.New(event.StateSignal, evt.Source()+1, event.Status))
		}
	}), subscription.ForGenerator(event.StateSignal))
	ctx := context.Background()
	evt := event.New(event.StateSignal, 0, event.Status)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Post(ctx, evt)
	}
}

// BenchmarkTableMatch measures snapshotting the subscribers of one event.
func BenchmarkTableMatch(b *testing.B) {
	t := subscription.NewTable[int]()
	for i := 1; i <= 30; i++ {
		t.Add(i, subscription.ForGenerator(event.Button))
		t.Add(i, subscription.ForSource(event.Button, event.SourceID(i)))
		t.Add(i, subscription.ForType(event.Button, event.SourceID(i), event.Activate))
	}
	evt := event.New(event.Button, 7, event.Activate)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = t.Match(evt)
	}
}

// BenchmarkSchedulerTick measures firing 100 repeating timers.
func BenchmarkSchedulerTick(b *testing.B) {
	s := timer.NewScheduler[int]()
	now := time.Unix(0, 0)
	for i := 0; i < 100; i++ {
		s.Schedule(i+1, event.SourceID(i), time.Millisecond, true, now)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		now = now.Add(time.Millisecond)
		_ = s.Tick(now)
	}
}

// BenchmarkProcessTimers measures delivering 10 due timers through a router.
func BenchmarkProcessTimers(b *testing.B) {
	now := time.Unix(0, 0)
	r := eventrouter.New(
		eventrouter.WithSubscriptionNotices(false),
		eventrouter.WithClock(func() time.Time { return now }),
	)
	b.Cleanup(func() { _ = r.Close() })
	owner := noopObserver()
	for i := 0; i < 10; i++ {
		r.AddTimer(owner, event.SourceID(i), time.Millisecond, true)
	}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		now = now.Add(time.Millisecond)
		_ = r.ProcessTimers(ctx)
	}
}

// BenchmarkQueue_SubmitDrain measures one submit and drain round trip.
func BenchmarkQueue_SubmitDrain(b *testing.B) {
	q := relay.NewQueue(relay.QueueConfig{})
	evt := event.New(event.Sensor, 1, event.Status)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Submit(evt)
		q.Drain(func(event.Event) {})
	}
}

// BenchmarkQueue_SubmitReplacing measures replacing submits into a queue
// holding 64 distinct sources.
func BenchmarkQueue_SubmitReplacing(b *testing.B) {
	q := relay.NewQueue(relay.QueueConfig{})
	for i := 0; i < 64; i++ {
		q.Submit(event.New(event.Sensor, event.SourceID(i), event.Status))
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.SubmitReplacing(event.New(event.Sensor, event.SourceID(i%64), event.Status))
	}
}

// BenchmarkQueue_Parallel measures concurrent producers.
func BenchmarkQueue_Parallel(b *testing.B) {
	q := relay.NewQueue(relay.QueueConfig{Capacity: 4096})
	evt := event.New(event.Sensor, 1, event.Status)

	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			q.Submit(evt)
		}
	})
}
