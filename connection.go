package loopx

import "context"

// Consumer accepts values.
type Consumer[T any] func(value T)

// Connection receives values until disposed.
type Connection[T any] interface {
	Accept(value T)
	Dispose()
}

// Connectable is connected once per session. The output consumer sends O values
// back to whoever connected; the returned Connection receives I values.
//
// A view is a Connectable[M, E]: it renders models and emits events.
type Connectable[I, O any] interface {
	Connect(output Consumer[O]) (Connection[I], error)
}

// EffectHandler turns a stream of effects into a stream of events.
//
// It runs as one task for the life of a loop. It must return when ctx is done or
// effects is closed, and must not close events. Effects may be handled concurrently;
// events written to events re-enter the loop.
type EffectHandler[F, E any] func(ctx context.Context, effects <-chan F, events chan<- E) error

// EventSource supplies external events to a loop.
// The returned channel is read until it is closed or ctx is done.
type EventSource[E any] interface {
	Events(ctx context.Context) <-chan E
}
