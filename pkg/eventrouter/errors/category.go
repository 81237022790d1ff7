// Package errors classifies relay failures and retries the transient ones.
//
// The router itself never retries: a relay that fails drops its event. Relays
// that talk to a network or a database wrap their calls in WithRetryContext
// so brief outages do not lose events:
//
//	res := errors.WithRetryContext(ctx, errors.DefaultRetry, func(ctx context.Context) (int64, error) {
//	    return client.Publish(ctx, channel, payload).Result()
//	})
//	if res.Err != nil {
//	    return true, res.Err
//	}
package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
)

// Category tells a relay what to do with a failed hand-off.
type Category int

const (
	// CategoryTransient failures may clear up on their own: timeouts,
	// refused connections, a restarting broker.
	CategoryTransient Category = iota

	// CategoryPermanent failures repeat on every attempt: encoding errors,
	// bad credentials, a closed store.
	CategoryPermanent

	// CategoryThrottled indicates the caller exceeded a rate limit. Retrying
	// immediately makes it worse, so relays drop the event instead.
	CategoryThrottled
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryPermanent:
		return "permanent"
	case CategoryThrottled:
		return "throttled"
	default:
		return "unknown"
	}
}

// CategorizedError is a relay failure tagged with its Category.
type CategorizedError struct {
	Err      error
	Category Category
	// Retries counts the attempts made before giving up.
	Retries int
	// Context names the operation, e.g. "redis publish".
	Context string
}

func (e *CategorizedError) Error() string {
	msg := fmt.Sprintf("%s [%s after %d attempts]", e.Err, e.Category, e.Retries)
	if e.Context != "" {
		return e.Context + ": " + msg
	}
	return msg
}

func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// Transient marks err as worth retrying.
func Transient(err error, context string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryTransient, Context: context}
}

// Permanent marks err as not worth retrying.
func Permanent(err error, context string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryPermanent, Context: context}
}

// Throttled marks err as a rate limit rejection.
func Throttled(err error, context string) *CategorizedError {
	return &CategorizedError{Err: err, Category: CategoryThrottled, Context: context}
}

// Categorize classifies err. Unrecognized errors are permanent.
func Categorize(err error) Category {
	if err == nil {
		return CategoryPermanent
	}

	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	// The caller gave up; retrying would outlive it.
	if errors.Is(err, context.Canceled) {
		return CategoryPermanent
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTransient
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTransient
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CategoryTransient
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return CategoryTransient
	}

	return CategoryPermanent
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}
