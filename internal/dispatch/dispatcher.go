// Package dispatch hands values to consumers on a chosen runner.
package dispatch

import (
	"fmt"

	"github.com/comalice/loopx/runners"
	"github.com/rs/zerolog/log"
)

// Dispatcher delivers each accepted value to its consumer on runner.
// A panicking consumer is reported and contained; it cannot take down the runner
// or prevent later deliveries.
type Dispatcher[T any] struct {
	runner   runners.WorkRunner
	consumer func(T)
}

// New pairs a runner with a consumer.
func New[T any](runner runners.WorkRunner, consumer func(T)) *Dispatcher[T] {
	return &Dispatcher[T]{runner: runner, consumer: consumer}
}

// Accept schedules delivery of v.
func (d *Dispatcher[T]) Accept(v T) {
	d.runner.Post(func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("message", fmt.Sprintf("%v", v)).
					Err(fmt.Errorf("panic: %v", r)).
					Msg("consumer threw an exception when accepting message")
			}
		}()
		d.consumer(v)
	})
}

// Dispose disposes the underlying runner. Deliveries still queued are dropped.
func (d *Dispatcher[T]) Dispose() {
	d.runner.Dispose()
}
