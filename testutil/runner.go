package testutil

import "sync"

// TestWorkRunner queues posted tasks until the test runs them.
// It gives tests full control over when a loop's work happens.
type TestWorkRunner struct {
	mu       sync.Mutex
	queue    []func()
	disposed bool
}

// NewTestWorkRunner returns an empty runner.
func NewTestWorkRunner() *TestWorkRunner {
	return &TestWorkRunner{}
}

// Post queues task. Ignored after Dispose.
func (r *TestWorkRunner) Post(task func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.disposed {
		return
	}
	r.queue = append(r.queue, task)
}

// RunOne runs the oldest queued task. Returns false if none was queued.
func (r *TestWorkRunner) RunOne() bool {
	r.mu.Lock()
	if len(r.queue) == 0 || r.disposed {
		r.mu.Unlock()
		return false
	}
	task := r.queue[0]
	r.queue = r.queue[1:]
	r.mu.Unlock()

	task()
	return true
}

// RunAll runs queued tasks, including ones they post, until none remain.
func (r *TestWorkRunner) RunAll() {
	for r.RunOne() {
	}
}

// Len returns the number of queued tasks.
func (r *TestWorkRunner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Dispose drops queued tasks.
func (r *TestWorkRunner) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed = true
	r.queue = nil
}

// IsDisposed reports whether Dispose was called.
func (r *TestWorkRunner) IsDisposed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.disposed
}
