package loopx

import (
	"context"

	"github.com/comalice/loopx/runners"
)

// Factory starts loops.
type Factory[M, E, F any] interface {
	StartFrom(startModel M) *Loop[M, E, F]
}

// Builder is an immutable, reusable Factory with a fluent API.
// Every With method returns a modified copy; the receiver is unchanged, so a
// Builder is safe to share between goroutines.
type Builder[M, E, F any] struct {
	ctx           context.Context
	init          Init[M, F]
	update        Update[M, E, F]
	effectHandler EffectHandler[F, E]
	eventSource   EventSource[E]
	logger        Logger[M, E, F]
	eventRunner   runners.Producer
	effectRunner  runners.Producer
}

// NewBuilder creates a Builder with the required update function and effect handler.
// Runners default to one serial goroutine each per loop.
func NewBuilder[M, E, F any](update Update[M, E, F], effectHandler EffectHandler[F, E]) Builder[M, E, F] {
	return Builder[M, E, F]{
		ctx:           context.Background(),
		update:        update,
		effectHandler: effectHandler,
		eventRunner:   runners.SerialProducer("loopx-events"),
		effectRunner:  runners.SerialProducer("loopx-effects"),
	}
}

// WithInit sets the init function.
func (b Builder[M, E, F]) WithInit(init Init[M, F]) Builder[M, E, F] {
	b.init = init
	return b
}

// WithEventSource replaces the external event source. Use eventsource.Merge for several.
func (b Builder[M, E, F]) WithEventSource(source EventSource[E]) Builder[M, E, F] {
	b.eventSource = source
	return b
}

// WithLogger sets the logger. Use Loggers to combine several.
func (b Builder[M, E, F]) WithLogger(logger Logger[M, E, F]) Builder[M, E, F] {
	b.logger = logger
	return b
}

// WithEventRunner sets the producer of event runners.
func (b Builder[M, E, F]) WithEventRunner(p runners.Producer) Builder[M, E, F] {
	b.eventRunner = p
	return b
}

// WithEffectRunner sets the producer of effect runners.
func (b Builder[M, E, F]) WithEffectRunner(p runners.Producer) Builder[M, E, F] {
	b.effectRunner = p
	return b
}

// WithContext sets the parent of every loop's supervising scope.
func (b Builder[M, E, F]) WithContext(ctx context.Context) Builder[M, E, F] {
	b.ctx = ctx
	return b
}

// StartFrom creates and starts a loop with fresh runners.
func (b Builder[M, E, F]) StartFrom(startModel M) *Loop[M, E, F] {
	return Create(b.ctx, startModel, Config[M, E, F]{
		Init:          b.init,
		Update:        b.update,
		EffectHandler: b.effectHandler,
		EventSource:   b.eventSource,
		EventRunner:   b.eventRunner(),
		EffectRunner:  b.effectRunner(),
		Logger:        b.logger,
	})
}
