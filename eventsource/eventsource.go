// Package eventsource provides external event streams for loops.
package eventsource

import (
	"context"
	"sync"
	"time"

	"github.com/comalice/loopx"
)

// Channel is an EventSource backed by a caller-owned channel.
// Provides a simple way to feed external events into a loop.
type Channel[E any] struct {
	ch <-chan E
}

// NewChannel wraps ch. The loop reads it until it is closed or the loop is disposed.
func NewChannel[E any](ch <-chan E) *Channel[E] {
	return &Channel[E]{ch: ch}
}

// Events returns the wrapped channel.
func (s *Channel[E]) Events(context.Context) <-chan E {
	return s.ch
}

// Timer emits the same event every interval.
// Useful for timeout/heartbeat loops.
type Timer[E any] struct {
	event    E
	interval time.Duration
}

// NewTimer creates a Timer that emits event every d.
func NewTimer[E any](event E, d time.Duration) *Timer[E] {
	return &Timer[E]{event: event, interval: d}
}

// Events starts a ticker for the life of ctx. Ticks are dropped while the
// previous event is still unread.
func (t *Timer[E]) Events(ctx context.Context) <-chan E {
	ch := make(chan E, 1)
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				select {
				case ch <- t.event:
				default:
					// drop if full
				}
			}
		}
	}()
	return ch
}

// Merge combines sources into one. Each source stays FIFO; sources interleave
// arbitrarily. The merged channel closes once every source has closed or ctx is done.
func Merge[E any](sources ...loopx.EventSource[E]) loopx.EventSource[E] {
	return merged[E](sources)
}

type merged[E any] []loopx.EventSource[E]

func (m merged[E]) Events(ctx context.Context) <-chan E {
	out := make(chan E)
	var wg sync.WaitGroup
	for _, src := range m {
		in := src.Events(ctx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case e, ok := <-in:
					if !ok {
						return
					}
					select {
					case out <- e:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
