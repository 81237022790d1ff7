package eventrouter

import (
	"context"
	"reflect"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
)

// Observer receives events. Receive should return quickly: it runs on the
// dispatching goroutine and delays every subscriber after it.
//
// Observers are compared by identity, so implementations must be comparable;
// pointer receivers are the usual choice. The router ignores, with a
// warning, an observer whose dynamic type is not comparable.
type Observer interface {
	Receive(ctx context.Context, evt event.Event)
}

// Interceptor sees events before observers and may suppress them.
type Interceptor interface {
	// Intercept returns true to stop delivery of evt to every subscriber
	// after this one.
	Intercept(ctx context.Context, evt event.Event) bool
}

// usable reports whether h can be stored as a subscriber or timer owner.
// Comparing or hashing an uncomparable dynamic type panics.
func usable(h any) bool {
	return h != nil && reflect.TypeOf(h).Comparable()
}

type funcObserver struct {
	fn func(context.Context, event.Event)
}

func (o *funcObserver) Receive(ctx context.Context, evt event.Event) { o.fn(ctx, evt) }

// ObserverFunc wraps fn as an Observer. Each call returns a distinct handle;
// keep it to unsubscribe later.
func ObserverFunc(fn func(ctx context.Context, evt event.Event)) Observer {
	return &funcObserver{fn: fn}
}

type funcInterceptor struct {
	fn func(context.Context, event.Event) bool
}

func (i *funcInterceptor) Intercept(ctx context.Context, evt event.Event) bool { return i.fn(ctx, evt) }

// InterceptorFunc wraps fn as an Interceptor. Each call returns a distinct
// handle.
func InterceptorFunc(fn func(ctx context.Context, evt event.Event) bool) Interceptor {
	return &funcInterceptor{fn: fn}
}
