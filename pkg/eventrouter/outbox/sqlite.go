package outbox

import (
	"cmp"
	"context"
	"database/sql"
	"fmt"
	"slices"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore keeps entries in a SQLite file that several processes can
// open at once.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens or creates the store at path.
// The path should be a file path (e.g., "/run/robot/outbox.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection per process; other processes are serialized by
	// SQLite's file locking and wait out busy_timeout.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS outbox (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			channel TEXT NOT NULL,
			created_at TEXT NOT NULL,
			payload BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_outbox_channel_seq
		ON outbox(channel, seq)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, channel string, payload []byte) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO outbox (channel, created_at, payload)
		VALUES (?, ?, ?)
	`, channel, time.Now().UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("append to %s: %w", channel, err)
	}
	return nil
}

// Take implements Store. Rows are selected and deleted in one statement,
// so concurrent pollers never receive the same entry. The delete runs in a
// transaction: if any row cannot be read, nothing is taken.
func (s *SQLiteStore) Take(ctx context.Context, channel string, limit int) (_ []Entry, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = -1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("take from %s: %w", channel, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	entries, err := takeRows(ctx, tx, channel, limit)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit take from %s: %w", channel, err)
	}

	// RETURNING does not promise an order.
	slices.SortFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.Seq, b.Seq)
	})
	return entries, nil
}

func takeRows(ctx context.Context, tx *sql.Tx, channel string, limit int) ([]Entry, error) {
	rows, err := tx.QueryContext(ctx, `
		DELETE FROM outbox
		WHERE seq IN (
			SELECT seq FROM outbox
			WHERE channel = ?
			ORDER BY seq
			LIMIT ?
		)
		RETURNING seq, created_at, payload
	`, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("take from %s: %w", channel, err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e := Entry{Channel: channel}
		var createdAt string
		if err := rows.Scan(&e.Seq, &createdAt, &e.Payload); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("entry %d created_at: %w", e.Seq, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Len implements Store.
func (s *SQLiteStore) Len(ctx context.Context, channel string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM outbox WHERE channel = ?
	`, channel).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", channel, err)
	}
	return n, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
