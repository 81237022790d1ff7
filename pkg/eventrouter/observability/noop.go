package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// NoopMetrics is a MetricsRecorder that does nothing.
type NoopMetrics struct{}

var _ MetricsRecorder = NoopMetrics{}

func (NoopMetrics) RecordPost(context.Context, event.Event, bool) {}
func (NoopMetrics) RecordDispatch(context.Context, event.Event, int, bool, time.Duration) {}
func (NoopMetrics) RecordSkipped(context.Context, event.Event) {}
func (NoopMetrics) RecordRelay(context.Context, string, error) {}
func (NoopMetrics) RecordTimerFire(context.Context, time.Duration) {}
func (NoopMetrics) RecordQueueDrop(context.Context, string) {}
func (NoopMetrics) RecordPanic(context.Context, event.Event) {}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

// StartDispatchSpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartDispatchSpan(ctx context.Context, _ event.Event) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// StartRelaySpan returns the context unchanged and a no-op span.
func (NoopSpanManager) StartRelaySpan(ctx context.Context, _ event.Event, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

// EndSpanWithError does nothing.
func (NoopSpanManager) EndSpanWithError(trace.Span, error) {}

// AddSpanEvent does nothing.
func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}
