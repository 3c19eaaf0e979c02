// Package testutil provides helpers for testing loops, update functions and views.
package testutil

import (
	"reflect"
	"sync"
	"testing"
	"time"
)

// RecordingConsumer records every value it accepts. Safe for concurrent use.
type RecordingConsumer[T any] struct {
	mu      sync.Mutex
	values  []T
	changed chan struct{}
}

// NewRecordingConsumer returns an empty recorder.
func NewRecordingConsumer[T any]() *RecordingConsumer[T] {
	return &RecordingConsumer[T]{changed: make(chan struct{})}
}

// Accept records v.
func (r *RecordingConsumer[T]) Accept(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
	close(r.changed)
	r.changed = make(chan struct{})
}

// Values returns a copy of everything recorded so far.
func (r *RecordingConsumer[T]) Values() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.values...)
}

// ValueCount returns how many values have been recorded.
func (r *RecordingConsumer[T]) ValueCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}

// Clear forgets recorded values.
func (r *RecordingConsumer[T]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = nil
}

// WaitForCount blocks until at least n values are recorded or timeout elapses.
func (r *RecordingConsumer[T]) WaitForCount(n int, timeout time.Duration) bool {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		r.mu.Lock()
		if len(r.values) >= n {
			r.mu.Unlock()
			return true
		}
		changed := r.changed
		r.mu.Unlock()

		select {
		case <-changed:
		case <-deadline.C:
			return false
		}
	}
}

// WaitForChange blocks until one more value is recorded or timeout elapses.
func (r *RecordingConsumer[T]) WaitForChange(timeout time.Duration) bool {
	return r.WaitForCount(r.ValueCount()+1, timeout)
}

// AssertValues fails t unless exactly want was recorded, in order.
func (r *RecordingConsumer[T]) AssertValues(t testing.TB, want ...T) {
	t.Helper()
	got := r.Values()
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("recorded %v, want %v", got, want)
	}
}

// AssertValuesInAnyOrder fails t unless want was recorded, ignoring order.
func (r *RecordingConsumer[T]) AssertValuesInAnyOrder(t testing.TB, want ...T) {
	t.Helper()
	got := r.Values()
	if len(got) != len(want) {
		t.Errorf("recorded %v, want %v in any order", got, want)
		return
	}
	used := make([]bool, len(got))
outer:
	for _, w := range want {
		for i, g := range got {
			if !used[i] && reflect.DeepEqual(g, w) {
				used[i] = true
				continue outer
			}
		}
		t.Errorf("recorded %v, missing %v", got, w)
		return
	}
}

// Collect reads n values from ch, failing t if ch closes or timeout elapses first.
func Collect[T any](t testing.TB, ch <-chan T, n int, timeout time.Duration) []T {
	t.Helper()
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	out := make([]T, 0, n)
	for len(out) < n {
		select {
		case v, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed after %d of %d values: %v", len(out), n, out)
			}
			out = append(out, v)
		case <-deadline.C:
			t.Fatalf("timed out after %d of %d values: %v", len(out), n, out)
		}
	}
	return out
}
