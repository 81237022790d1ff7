package benchmarks

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/randalmurphal/eventrouter/pkg/eventrouter/event"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/outbox"
	"github.com/randalmurphal/eventrouter/pkg/eventrouter/redisrelay"
)

func samplePayload(b *testing.B) []byte {
	b.Helper()
	data, err := json.Marshal(event.New(event.Sensor, 4, event.Status,
		event.WithName("battery"), event.WithMagnitude(0.42), event.WithHost("bench")))
	if err != nil {
		b.Fatal(err)
	}
	return data
}

// BenchmarkMemoryStore_AppendTake measures an in-memory append and take.
func BenchmarkMemoryStore_AppendTake(b *testing.B) {
	store := outbox.NewMemoryStore()
	ctx := context.Background()
	data := samplePayload(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Append(ctx, "bench", data)
		_, _ = store.Take(ctx, "bench", 1)
	}
}

// BenchmarkSQLiteStore_Append measures SQLite appends.
func BenchmarkSQLiteStore_Append(b *testing.B) {
	store, cleanup := createSQLiteStore(b)
	defer cleanup()
	ctx := context.Background()
	data := samplePayload(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = store.Append(ctx, "bench", data)
	}
}

// BenchmarkSQLiteStore_Take measures taking batches of 64 from SQLite.
func BenchmarkSQLiteStore_Take(b *testing.B) {
	store, cleanup := createSQLiteStore(b)
	defer cleanup()
	ctx := context.Background()
	data := samplePayload(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		b.StopTimer()
		for j := 0; j < 64; j++ {
			_ = store.Append(ctx, "bench", data)
		}
		b.StartTimer()
		_, _ = store.Take(ctx, "bench", 64)
	}
}

// BenchmarkEventEncode measures the wire encoding used by the relays.
func BenchmarkEventEncode(b *testing.B) {
	evt := event.New(event.Sensor, 4, event.Status, event.WithName("battery"), event.WithMagnitude(0.42))

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = redisrelay.Encode(evt)
	}
}

// BenchmarkEventDecode measures decoding a relayed event.
func BenchmarkEventDecode(b *testing.B) {
	data := samplePayload(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = redisrelay.Decode(data)
	}
}

func createSQLiteStore(b *testing.B) (*outbox.SQLiteStore, func()) {
	b.Helper()
	tmpFile, err := os.CreateTemp("", "bench-*.db")
	if err != nil {
		b.Fatal(err)
	}
	tmpFile.Close()

	store, err := outbox.NewSQLiteStore(tmpFile.Name())
	if err != nil {
		os.Remove(tmpFile.Name())
		b.Fatal(err)
	}

	return store, func() {
		store.Close()
		os.Remove(tmpFile.Name())
	}
}
