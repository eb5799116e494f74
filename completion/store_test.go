package completion

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestMemoryStoreFirstWriteWins(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	first := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	second := first.Add(2 * time.Hour)

	recorded, err := store.SetIfAbsent(ctx, "4711", first)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if !recorded.Equal(first) {
		t.Errorf("Expected %v recorded, got %v", first, recorded)
	}

	// Second write must be a no-op returning the original timestamp.
	recorded, err = store.SetIfAbsent(ctx, "4711", second)
	if err != nil {
		t.Fatalf("Second SetIfAbsent failed: %v", err)
	}
	if !recorded.Equal(first) {
		t.Errorf("Second write must preserve the original timestamp, got %v", recorded)
	}

	got, err := store.Get(ctx, "4711")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !got.Equal(first) {
		t.Errorf("Get returned %v, want %v", got, first)
	}
}

func TestMemoryStoreGetAbsent(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	_, err := store.Get(context.Background(), "9999")
	if err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for absent task, got %v", err)
	}
}

func TestMemoryStoreInvalidID(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	if _, err := store.Get(context.Background(), ""); err != ErrInvalidTaskID {
		t.Errorf("Expected ErrInvalidTaskID, got %v", err)
	}
}

func TestFileStoreRoundTripAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completions.json")
	ctx := context.Background()

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	ts := time.Date(2026, 8, 23, 14, 2, 11, 0, time.UTC)
	recorded, err := store.SetIfAbsent(ctx, "4711", ts)
	if err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Simulate a process restart.
	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "4711")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if EncodeTime(got) != EncodeTime(recorded) {
		t.Errorf("Round trip changed the timestamp: wrote %s, read %s",
			EncodeTime(recorded), EncodeTime(got))
	}
}

func TestFileStorePreservesFirstWriteAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completions.json")
	ctx := context.Background()

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	original := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	if _, err := store.SetIfAbsent(ctx, "4711", original); err != nil {
		t.Fatalf("SetIfAbsent failed: %v", err)
	}
	store.Close()

	reopened, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer reopened.Close()

	recorded, err := reopened.SetIfAbsent(ctx, "4711", original.Add(time.Hour))
	if err != nil {
		t.Fatalf("SetIfAbsent after reopen failed: %v", err)
	}
	if !recorded.Equal(original) {
		t.Errorf("Expected original timestamp %v preserved, got %v", original, recorded)
	}
}

func TestFileStoreConcurrentDistinctIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "completions.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("task-%d", i)
			if _, err := store.SetIfAbsent(ctx, id, base.Add(time.Duration(i)*time.Minute)); err != nil {
				t.Errorf("SetIfAbsent(%s) failed: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	// Every entry must still be present and intact.
	for i := 0; i < 20; i++ {
		id := fmt.Sprintf("task-%d", i)
		got, err := store.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get(%s) failed: %v", id, err)
		}
		if !got.Equal(base.Add(time.Duration(i) * time.Minute)) {
			t.Errorf("Get(%s) = %v, wrong timestamp", id, got)
		}
	}
}

func TestTimeCodec(t *testing.T) {
	ts := time.Date(2026, 8, 23, 14, 2, 11, 123456789, time.FixedZone("CEST", 2*3600))
	encoded := EncodeTime(ts)

	decoded, err := DecodeTime(encoded)
	if err != nil {
		t.Fatalf("DecodeTime failed: %v", err)
	}
	// Codec is second-precision UTC; encoding again must be byte-identical.
	if EncodeTime(decoded) != encoded {
		t.Errorf("Codec not stable: %s vs %s", encoded, EncodeTime(decoded))
	}
}
