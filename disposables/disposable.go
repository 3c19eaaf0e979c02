// Package disposables provides cleanup handles and the group that tears them down together.
package disposables

import "sync"

// Disposable releases a resource. Implementations must tolerate repeated calls.
type Disposable interface {
	Dispose()
}

// Func adapts a plain function to Disposable.
type Func func()

// Dispose calls f.
func (f Func) Dispose() {
	if f != nil {
		f()
	}
}

// Composite disposes a fixed set of handles captured at construction.
type Composite struct {
	mu          sync.Mutex
	disposables []Disposable
	disposed    bool
}

// NewComposite copies ds; later changes to the caller's slice have no effect.
func NewComposite(ds ...Disposable) *Composite {
	return &Composite{
		disposables: append([]Disposable(nil), ds...),
	}
}

// Dispose disposes every handle once, in registration order.
// The whole sweep runs under one lock so concurrent callers never interleave.
func (c *Composite) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true

	for _, d := range c.disposables {
		if d != nil {
			d.Dispose()
		}
	}
}
