// Package benchmarks provides performance benchmarks for loops and runners.
package benchmarks

import (
	"sync/atomic"
	"time"

	"github.com/comalice/loopx"
	"github.com/comalice/loopx/runners"
)

// Tick is the only event the benchmark loops understand.
type Tick struct{}

// CountingUpdate increments the model and counts every processed event.
func CountingUpdate(processed *int64) loopx.Update[int, Tick, struct{}] {
	return func(model int, _ Tick) loopx.Next[int, struct{}] {
		atomic.AddInt64(processed, 1)
		return loopx.NewNext[int, struct{}](model + 1)
	}
}

// NewCountingLoop starts a counter loop on runners from p.
func NewCountingLoop(processed *int64, p runners.Producer) *loopx.Loop[int, Tick, struct{}] {
	return loopx.NewBuilder[int, Tick, struct{}](CountingUpdate(processed), nil).
		WithEventRunner(p).
		WithEffectRunner(runners.ImmediateProducer()).
		StartFrom(0)
}

// WaitFor polls until *counter reaches want or timeout elapses.
func WaitFor(counter *int64, want int64, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for atomic.LoadInt64(counter) < want {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(100 * time.Microsecond)
	}
	return true
}
