package loadlist

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/warenwerk/palletkit/taskapi"
)

// SortTasks orders tasks in place: descending numeric priority first
// (service convention: 4 is most urgent), then ascending content under
// German collation, diacritics-sensitive. The sort is stable for fully
// equal keys.
func SortTasks(tasks []taskapi.Task) {
	// A fresh Collator per call: collators carry internal buffers and are
	// not safe for concurrent use.
	c := collate.New(language.German)
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Priority != tasks[j].Priority {
			return tasks[i].Priority > tasks[j].Priority
		}
		return c.CompareString(tasks[i].Content, tasks[j].Content) < 0
	})
}

// SortedCopy returns a sorted copy, leaving the input untouched.
func SortedCopy(tasks []taskapi.Task) []taskapi.Task {
	out := make([]taskapi.Task, len(tasks))
	copy(out, tasks)
	SortTasks(out)
	return out
}

// SortLabels orders label names ascending under German collation.
func SortLabels(labels []string) {
	c := collate.New(language.German)
	sort.SliceStable(labels, func(i, j int) bool {
		return c.CompareString(labels[i], labels[j]) < 0
	})
}
