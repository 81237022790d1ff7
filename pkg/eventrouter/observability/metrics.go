package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// MetricsRecorder records router metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordPost records a post; queued is true when it waited behind an
	// active dispatch.
	RecordPost(ctx context.Context, evt event.Event, queued bool)

	// RecordDispatch records the completed delivery of one event.
	RecordDispatch(ctx context.Context, evt event.Event, delivered int, suppressed bool, duration time.Duration)

	// RecordSkipped records a delivery skipped because the handle
	// unsubscribed after the snapshot was taken.
	RecordSkipped(ctx context.Context, evt event.Event)

	// RecordRelay records an event handed to a forwarding relay.
	RecordRelay(ctx context.Context, origin string, err error)

	// RecordTimerFire records a fired timer and how late it was delivered.
	RecordTimerFire(ctx context.Context, lateness time.Duration)

	// RecordQueueDrop records an event lost to relay queue overflow.
	RecordQueueDrop(ctx context.Context, policy string)

	// RecordPanic records a recovered subscriber panic.
	RecordPanic(ctx context.Context, evt event.Event)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	posted      metric.Int64Counter
	delivered   metric.Int64Counter
	suppressed  metric.Int64Counter
	skipped     metric.Int64Counter
	relayed     metric.Int64Counter
	relayErrors metric.Int64Counter
	timerFires  metric.Int64Counter
	timerLate   metric.Float64Histogram
	queueDrops  metric.Int64Counter
	panics      metric.Int64Counter
	latency     metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics lazily initializes the shared OTel instruments.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventrouter")
	m := &otelMetrics{}

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.posted, "eventrouter.events.posted", "Number of events posted"},
		{&m.delivered, "eventrouter.events.delivered", "Number of subscriber callbacks invoked"},
		{&m.suppressed, "eventrouter.events.suppressed", "Number of events suppressed by an interceptor"},
		{&m.skipped, "eventrouter.events.skipped", "Number of deliveries skipped after unsubscribe"},
		{&m.relayed, "eventrouter.events.relayed", "Number of events handed to a forwarding relay"},
		{&m.relayErrors, "eventrouter.relay.errors", "Number of events lost by a forwarding relay"},
		{&m.timerFires, "eventrouter.timers.fired", "Number of timer fires"},
		{&m.queueDrops, "eventrouter.queue.dropped", "Number of events lost to relay queue overflow"},
		{&m.panics, "eventrouter.subscriber.panics", "Number of recovered subscriber panics"},
	}
	for _, c := range counters {
		counter, err := meter.Int64Counter(c.name, metric.WithDescription(c.desc))
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	m.latency, err = meter.Float64Histogram("eventrouter.dispatch.latency_ms",
		metric.WithDescription("Time to deliver one event to all subscribers in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	m.timerLate, err = meter.Float64Histogram("eventrouter.timers.lateness_ms",
		metric.WithDescription("Delay between a timer deadline and its delivery in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func generatorAttr(evt event.Event) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("generator", evt.Generator().String()))
}

// RecordPost records a post.
func (m *otelMetrics) RecordPost(ctx context.Context, evt event.Event, queued bool) {
	m.posted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("generator", evt.Generator().String()),
		attribute.Bool("queued", queued),
	))
}

// RecordDispatch records a completed delivery.
func (m *otelMetrics) RecordDispatch(ctx context.Context, evt event.Event, delivered int, suppressed bool, duration time.Duration) {
	attrs := generatorAttr(evt)
	if delivered > 0 {
		m.delivered.Add(ctx, int64(delivered), attrs)
	}
	if suppressed {
		m.suppressed.Add(ctx, 1, attrs)
	}
	m.latency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}

// RecordSkipped records a skipped delivery.
func (m *otelMetrics) RecordSkipped(ctx context.Context, evt event.Event) {
	m.skipped.Add(ctx, 1, generatorAttr(evt))
}

// RecordRelay records a forwarded event.
func (m *otelMetrics) RecordRelay(ctx context.Context, origin string, err error) {
	attrs := metric.WithAttributes(attribute.String("origin", origin))
	m.relayed.Add(ctx, 1, attrs)
	if err != nil {
		m.relayErrors.Add(ctx, 1, attrs)
	}
}

// RecordTimerFire records a timer fire.
func (m *otelMetrics) RecordTimerFire(ctx context.Context, lateness time.Duration) {
	m.timerFires.Add(ctx, 1)
	m.timerLate.Record(ctx, float64(lateness.Microseconds())/1000)
}

// RecordQueueDrop records a queue overflow.
func (m *otelMetrics) RecordQueueDrop(ctx context.Context, policy string) {
	m.queueDrops.Add(ctx, 1, metric.WithAttributes(attribute.String("policy", policy)))
}

// RecordPanic records a recovered panic.
func (m *otelMetrics) RecordPanic(ctx context.Context, evt event.Event) {
	m.panics.Add(ctx, 1, generatorAttr(evt))
}
