package loadlist

import (
	"context"
	"testing"

	"github.com/warenwerk/palletkit/taskapi"
)

func TestStoreCreateAndGet(t *testing.T) {
	store := NewStore(nil)
	defer store.Close()

	ctx := context.Background()
	tasks := []taskapi.Task{
		{ID: "1", Priority: 1, Content: "Palette 2"},
		{ID: "2", Priority: 3, Content: "Palette 1"},
	}

	snap, err := store.Create(ctx, "K100", tasks)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if snap.ID == "" {
		t.Fatal("Expected a generated snapshot ID")
	}
	if snap.Count() != 2 {
		t.Errorf("Expected count 2, got %d", snap.Count())
	}
	if snap.Tasks[0].ID != "2" {
		t.Error("Snapshot tasks must be sorted by priority")
	}

	got, err := store.Get(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Label != "K100" {
		t.Errorf("Expected label K100, got %s", got.Label)
	}
}

func TestStoreGetUnknown(t *testing.T) {
	store := NewStore(nil)
	defer store.Close()

	if _, err := store.Get(context.Background(), "nope"); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestStoreCreateEmptyLabel(t *testing.T) {
	store := NewStore(nil)
	defer store.Close()

	if _, err := store.Create(context.Background(), "", nil); err != ErrEmptyLabel {
		t.Errorf("Expected ErrEmptyLabel, got %v", err)
	}
}

func TestStoreCreateDoesNotRetainInput(t *testing.T) {
	store := NewStore(nil)
	defer store.Close()

	tasks := []taskapi.Task{
		{ID: "1", Priority: 1, Content: "B"},
		{ID: "2", Priority: 4, Content: "A"},
	}
	snap, err := store.Create(context.Background(), "K100", tasks)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Mutating the caller's slice must not reach the stored snapshot.
	tasks[0].Content = "mutated"
	got, _ := store.Get(context.Background(), snap.ID)
	for _, task := range got.Tasks {
		if task.Content == "mutated" {
			t.Error("Snapshot must hold a private copy of the tasks")
		}
	}
}

func TestStoreSearch(t *testing.T) {
	index, err := NewIndex("")
	if err != nil {
		t.Fatalf("NewIndex failed: %v", err)
	}
	store := NewStore(index)
	defer store.Close()

	ctx := context.Background()
	_, err = store.Create(ctx, "K100", []taskapi.Task{
		{ID: "1", Priority: 2, Content: "Tür vorne rechts BL07"},
		{ID: "2", Priority: 1, Content: "Seitenwand links"},
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	_, err = store.Create(ctx, "K200", []taskapi.Task{
		{ID: "3", Priority: 1, Content: "Dach hinten TR09"},
	})
	if err != nil {
		t.Fatalf("Second create failed: %v", err)
	}

	hits, err := store.Search(ctx, "BL07", 10)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("Expected 1 hit, got %d", len(hits))
	}
	if hits[0].Label != "K100" {
		t.Errorf("Expected hit in K100, got %s", hits[0].Label)
	}
}

func TestStoreSearchWithoutIndex(t *testing.T) {
	store := NewStore(nil)
	defer store.Close()

	hits, err := store.Search(context.Background(), "anything", 10)
	if err != nil {
		t.Fatalf("Search without index should not fail: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("Expected no hits, got %d", len(hits))
	}
}
