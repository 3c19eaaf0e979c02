package realtime

import "sort"

// taskWithMeta adds sequencing metadata for deterministic ordering.
type taskWithMeta struct {
	run         func()
	sequenceNum uint64
}

// sortTasks orders a batch by sequence number.
// Batches are appended in order already; sorting keeps the guarantee explicit
// when a rolled-over remainder is merged with newer work.
func sortTasks(tasks []taskWithMeta) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].sequenceNum < tasks[j].sequenceNum
	})
}
