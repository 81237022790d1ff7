// Package observability provides logging, metrics and tracing hooks for the
// event router.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// EventAttrs returns the standard log attributes describing evt.
func EventAttrs(evt event.Event) []any {
	return []any{
		slog.String("event_id", evt.ID()),
		slog.String("generator", evt.Generator().String()),
		slog.Uint64("source", uint64(evt.Source())),
		slog.String("type", evt.Type().String()),
	}
}

// EnrichLogger adds a component name to a logger.
func EnrichLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("component", component))
}

// LogNilHandle logs an attempt to register or remove a nil subscriber.
func LogNilHandle(logger *slog.Logger, op string) {
	if logger == nil {
		return
	}
	logger.Warn("ignoring nil handle",
		slog.String("operation", op),
	)
}

// LogUncomparableHandle logs a registration whose handle cannot be compared
// by identity.
func LogUncomparableHandle(logger *slog.Logger, op string, h any) {
	if logger == nil {
		return
	}
	logger.Warn("ignoring uncomparable handle",
		slog.String("operation", op),
		slog.String("type", fmt.Sprintf("%T", h)),
	)
}

// LogInvalidKey logs a subscription call with an unusable key.
func LogInvalidKey(logger *slog.Logger, op string, key fmt.Stringer) {
	if logger == nil {
		return
	}
	logger.Warn("ignoring invalid subscription key",
		slog.String("operation", op),
		slog.String("key", key.String()),
	)
}

// LogSubscriberPanic logs a recovered subscriber panic.
func LogSubscriberPanic(logger *slog.Logger, evt event.Event, recovered any) {
	if logger == nil {
		return
	}
	args := append(EventAttrs(evt), slog.String("panic", fmt.Sprint(recovered)))
	logger.Error("subscriber panicked", args...)
}

// LogRelayError logs an event lost by a forwarding relay.
func LogRelayError(logger *slog.Logger, origin string, evt event.Event, err error) {
	if logger == nil {
		return
	}
	args := append(EventAttrs(evt),
		slog.String("origin", origin),
		slog.String("error", err.Error()),
	)
	logger.Warn("relay dropped event", args...)
}

// LogQueueDrop logs an event lost to relay queue overflow.
func LogQueueDrop(logger *slog.Logger, evt event.Event, policy string) {
	if logger == nil {
		return
	}
	args := append(EventAttrs(evt), slog.String("policy", policy))
	logger.Warn("relay queue overflow", args...)
}

// LogTimerFired logs a timer delivery at debug level.
func LogTimerFired(logger *slog.Logger, src event.SourceID, scheduled time.Time, lateness time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("timer fired",
		slog.Uint64("source", uint64(src)),
		slog.Time("scheduled", scheduled),
		slog.Duration("lateness", lateness),
	)
}

// LogDispatchBacklog logs a dispatch loop that drained more queued records
// than expected, usually a subscriber cascade.
func LogDispatchBacklog(logger *slog.Logger, drained int) {
	if logger == nil {
		return
	}
	logger.Debug("dispatch backlog drained",
		slog.Int("records", drained),
	)
}

// LogRunStart logs the start of the router host loop.
func LogRunStart(logger *slog.Logger, idle time.Duration) {
	if logger == nil {
		return
	}
	logger.Info("router loop starting",
		slog.Duration("idle_interval", idle),
	)
}

// LogRunStop logs the end of the router host loop.
func LogRunStop(logger *slog.Logger, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Info("router loop stopped",
		slog.String("reason", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	elapsed := done()
func TimedOperation() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
