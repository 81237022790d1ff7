// Package outbox hands events between processes on one machine through a
// shared SQLite file.
//
// A Relay appends posted events to a named channel; a Poller in the
// receiving process takes them in insertion order and submits them to a
// relay.Queue. Rows are deleted as they are taken, so the store holds only
// events in transit, never a history.
package outbox

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for outbox stores.
var (
	// ErrStoreClosed indicates the store was closed.
	ErrStoreClosed = errors.New("outbox store closed")
)

// Store holds events in transit. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append adds payload to the end of channel.
	Append(ctx context.Context, channel string, payload []byte) error

	// Take removes and returns up to limit of the oldest entries of
	// channel, oldest first. Returns an empty slice (not error) if the
	// channel is empty.
	Take(ctx context.Context, channel string, limit int) ([]Entry, error)

	// Len returns the number of entries waiting in channel.
	Len(ctx context.Context, channel string) (int, error)

	// Close releases any resources (connections, files).
	Close() error
}

// Entry is one stored payload.
type Entry struct {
	Seq       int64
	Channel   string
	Payload   []byte
	CreatedAt time.Time
}
