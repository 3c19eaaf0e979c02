// Package runners provides the execution contexts a loop posts work to.
//
// A WorkRunner must run posted tasks in the order they were posted and never run two
// of them at the same time. Post must not block the caller.
package runners

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// WorkRunner executes posted tasks in order.
type WorkRunner interface {
	Post(task func())
	Dispose()
}

// Producer creates a fresh WorkRunner. Loops dispose their runners, so a
// reusable factory needs a new one per loop.
type Producer func() WorkRunner

// SerialProducer returns a Producer of goroutine-backed runners named name.
func SerialProducer(name string) Producer {
	return func() WorkRunner { return NewSerial(name) }
}

// ImmediateProducer returns a Producer of caller-goroutine runners.
func ImmediateProducer() Producer {
	return func() WorkRunner { return NewImmediate() }
}

// runTask executes task, containing any panic so the runner survives it.
func runTask(runner string, task func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("runner", runner).
				Err(fmt.Errorf("panic: %v", r)).
				Msg("task panicked")
		}
	}()
	task()
}
