package outbox

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps entries in memory. It only connects relays and
// pollers inside one process, which makes it useful in tests.
type MemoryStore struct {
	mu       sync.Mutex
	channels map[string][]Entry
	seq      int64
	closed   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{channels: make(map[string][]Entry)}
}

// Append implements Store.
func (s *MemoryStore) Append(_ context.Context, channel string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	s.seq++
	s.channels[channel] = append(s.channels[channel], Entry{
		Seq:       s.seq,
		Channel:   channel,
		Payload:   append([]byte(nil), payload...),
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, channel string, limit int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	entries := s.channels[channel]
	if limit <= 0 || limit > len(entries) {
		limit = len(entries)
	}
	taken := make([]Entry, limit)
	copy(taken, entries)
	if limit == len(entries) {
		delete(s.channels, channel)
	} else {
		s.channels[channel] = append([]Entry(nil), entries[limit:]...)
	}
	return taken, nil
}

// Len implements Store.
func (s *MemoryStore) Len(_ context.Context, channel string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}
	return len(s.channels[channel]), nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	s.channels = nil
	return nil
}
