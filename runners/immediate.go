package runners

import "sync"

// Immediate runs tasks on the posting goroutine.
//
// A Post that arrives while another task is executing is queued and run by the
// goroutine already executing, after its current task. Order is preserved and
// re-entrant posts never deadlock.
type Immediate struct {
	mu       sync.Mutex
	pending  []func()
	running  bool
	disposed bool
}

// NewImmediate returns a ready runner.
func NewImmediate() *Immediate {
	return &Immediate{}
}

// Post runs task now, or queues it behind the task in flight.
func (r *Immediate) Post(task func()) {
	r.mu.Lock()
	if r.disposed {
		r.mu.Unlock()
		return
	}
	r.pending = append(r.pending, task)
	if r.running {
		r.mu.Unlock()
		return
	}
	r.running = true

	for len(r.pending) > 0 && !r.disposed {
		next := r.pending[0]
		r.pending = r.pending[1:]
		r.mu.Unlock()
		runTask("immediate", next)
		r.mu.Lock()
	}
	r.running = false
	r.mu.Unlock()
}

// Dispose drops queued tasks; later posts are ignored.
func (r *Immediate) Dispose() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disposed = true
	r.pending = nil
}
