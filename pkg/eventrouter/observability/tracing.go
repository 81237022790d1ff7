package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("eventrouter")

// SpanManager handles trace span lifecycle.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartDispatchSpan starts a span covering delivery of one event.
	StartDispatchSpan(ctx context.Context, evt event.Event) (context.Context, trace.Span)

	// StartRelaySpan starts a span covering a hand-off to a forwarding relay.
	StartRelaySpan(ctx context.Context, evt event.Event, origin string) (context.Context, trace.Span)

	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

// otelSpanManager implements SpanManager using OpenTelemetry.
type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartDispatchSpan(ctx context.Context, evt event.Event) (context.Context, trace.Span) {
	return StartDispatchSpan(ctx, evt)
}

func (m *otelSpanManager) StartRelaySpan(ctx context.Context, evt event.Event, origin string) (context.Context, trace.Span) {
	return StartRelaySpan(ctx, evt, origin)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	EndSpanWithError(span, err)
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	AddSpanEvent(ctx, name, attrs...)
}

func eventSpanAttrs(evt event.Event) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("event.id", evt.ID()),
		attribute.String("event.generator", evt.Generator().String()),
		attribute.Int64("event.source", int64(evt.Source())),
		attribute.String("event.type", evt.Type().String()),
	}
}

// StartDispatchSpan starts a dispatch span using the global OTel tracer.
func StartDispatchSpan(ctx context.Context, evt event.Event) (context.Context, trace.Span) {
	return tracer.Start(ctx, "eventrouter.dispatch",
		trace.WithAttributes(eventSpanAttrs(evt)...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartRelaySpan starts a relay span using the global OTel tracer.
func StartRelaySpan(ctx context.Context, evt event.Event, origin string) (context.Context, trace.Span) {
	attrs := append(eventSpanAttrs(evt), attribute.String("relay.origin", origin))
	return tracer.Start(ctx, "eventrouter.relay",
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindProducer),
	)
}

// EndSpanWithError completes a span, optionally recording an error.
func EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span in context.
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
