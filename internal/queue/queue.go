// Package queue provides the unbounded FIFO behind every non-blocking post in loopx.
// Producers never block; a single consumer waits on Ready and takes batches with Drain.
package queue

import "sync"

// Unbounded is a mutex-guarded FIFO with a one-slot wakeup channel.
// Safe for concurrent Push from many goroutines and one draining consumer.
type Unbounded[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool
	ready  chan struct{}
}

// New returns an empty, open queue.
func New[T any]() *Unbounded[T] {
	return &Unbounded[T]{ready: make(chan struct{}, 1)}
}

// Push appends v and wakes the consumer. Returns false if the queue is closed.
func (q *Unbounded[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.ready <- struct{}{}:
	default:
	}
	return true
}

// Ready fires at least once after any Push since the last Drain.
func (q *Unbounded[T]) Ready() <-chan struct{} {
	return q.ready
}

// Drain removes and returns everything queued, oldest first.
func (q *Unbounded[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// Len reports the number of queued items.
func (q *Unbounded[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close rejects further pushes and discards pending items.
// Returns how many items were discarded. Safe to call multiple times.
func (q *Unbounded[T]) Close() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}
	q.closed = true
	dropped := len(q.items)
	q.items = nil
	return dropped
}

// Closed reports whether Close has been called.
func (q *Unbounded[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
