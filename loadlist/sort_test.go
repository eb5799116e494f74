package loadlist

import (
	"testing"

	"github.com/warenwerk/palletkit/taskapi"
)

func TestSortTasksPriorityThenContent(t *testing.T) {
	tasks := []taskapi.Task{
		{ID: "1", Priority: 4, Content: "B"},
		{ID: "2", Priority: 4, Content: "A"},
		{ID: "3", Priority: 2, Content: "Z"},
	}

	SortTasks(tasks)

	want := []string{"A", "B", "Z"}
	for i, content := range want {
		if tasks[i].Content != content {
			t.Errorf("Position %d: expected %s, got %s", i, content, tasks[i].Content)
		}
	}
	if tasks[0].Priority != 4 || tasks[2].Priority != 2 {
		t.Error("Higher priority must sort first")
	}
}

func TestSortTasksGermanCollation(t *testing.T) {
	tasks := []taskapi.Task{
		{ID: "1", Priority: 1, Content: "Zarge"},
		{ID: "2", Priority: 1, Content: "Tür vorne"},
		{ID: "3", Priority: 1, Content: "Tor"},
	}

	SortTasks(tasks)

	// German collation sorts ö/ü next to o/u, not after z.
	want := []string{"Tor", "Tür vorne", "Zarge"}
	for i, content := range want {
		if tasks[i].Content != content {
			t.Errorf("Position %d: expected %s, got %s", i, content, tasks[i].Content)
		}
	}
}

func TestSortTasksStable(t *testing.T) {
	tasks := []taskapi.Task{
		{ID: "first", Priority: 3, Content: "Palette"},
		{ID: "second", Priority: 3, Content: "Palette"},
		{ID: "third", Priority: 3, Content: "Palette"},
	}

	SortTasks(tasks)

	want := []string{"first", "second", "third"}
	for i, id := range want {
		if tasks[i].ID != id {
			t.Errorf("Stability violated at %d: expected %s, got %s", i, id, tasks[i].ID)
		}
	}
}

func TestSortedCopyLeavesInputUntouched(t *testing.T) {
	tasks := []taskapi.Task{
		{ID: "1", Priority: 1, Content: "B"},
		{ID: "2", Priority: 4, Content: "A"},
	}

	sorted := SortedCopy(tasks)

	if tasks[0].ID != "1" {
		t.Error("Input slice must not be reordered")
	}
	if sorted[0].ID != "2" {
		t.Error("Copy must be sorted")
	}
}

func TestSortLabels(t *testing.T) {
	labels := []string{"K200", "K100", "Ä50"}
	SortLabels(labels)

	if labels[0] != "Ä50" {
		t.Errorf("German collation should sort Ä before K, got %v", labels)
	}
	if labels[1] != "K100" || labels[2] != "K200" {
		t.Errorf("Unexpected order %v", labels)
	}
}
