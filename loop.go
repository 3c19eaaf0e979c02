package loopx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/comalice/loopx/disposables"
	"github.com/comalice/loopx/internal/queue"
	"github.com/comalice/loopx/runners"
	"github.com/rs/zerolog/log"
)

// Config wires the collaborators of a single loop.
type Config[M, E, F any] struct {
	// Init runs once before any event. Nil starts from the start model with no effects.
	Init Init[M, F]
	// Update is required.
	Update Update[M, E, F]
	// EffectHandler receives every effect. Nil discards effects.
	EffectHandler EffectHandler[F, E]
	// EventSource is an optional external event stream.
	EventSource EventSource[E]
	// EventRunner runs init, update and publication. The loop takes ownership.
	EventRunner runners.WorkRunner
	// EffectRunner delivers effects to the EffectHandler. The loop takes ownership.
	EffectRunner runners.WorkRunner
	// Logger observes init and update. Nil disables logging.
	Logger Logger[M, E, F]
}

// Loop drives one model forward. Created by Create or a Factory; disposed exactly once.
type Loop[M, E, F any] struct {
	ctx    context.Context
	cancel context.CancelFunc

	processor    *eventProcessor[M, E, F]
	eventRunner  runners.WorkRunner
	effectRunner runners.WorkRunner
	effects      chan F
	hasHandler   bool
	handlerDone  chan struct{} // closed when the effect handler returns

	mu        sync.Mutex
	current   M
	observers map[uint64]*observer[M]
	nextID    uint64

	disposed atomic.Bool
	teardown *disposables.Composite
}

// Create starts a loop from startModel under the supervising scope ctx.
//
// Init is posted to the event runner before anything else, so every event
// dispatched after Create returns is processed after init. Cancelling ctx stops
// the effect handler and event sources but does not dispose the loop; call Dispose.
func Create[M, E, F any](ctx context.Context, startModel M, cfg Config[M, E, F]) *Loop[M, E, F] {
	if cfg.Update == nil {
		panic("loopx: Config.Update is required")
	}
	if cfg.Init == nil {
		cfg.Init = func(model M) First[M, F] { return NewFirst[M, F](model) }
	}
	if cfg.Logger == nil {
		cfg.Logger = NoopLogger[M, E, F]{}
	}
	if cfg.EventRunner == nil {
		cfg.EventRunner = runners.NewSerial("loopx-events")
	}
	if cfg.EffectRunner == nil {
		cfg.EffectRunner = runners.NewSerial("loopx-effects")
	}

	l := &Loop[M, E, F]{
		eventRunner:  cfg.EventRunner,
		effectRunner: cfg.EffectRunner,
		effects:      make(chan F),
		hasHandler:   cfg.EffectHandler != nil,
		handlerDone:  make(chan struct{}),
		current:      startModel,
		observers:    make(map[uint64]*observer[M]),
	}
	l.ctx, l.cancel = context.WithCancel(ctx)
	// cancel first so the handler and sources stop before the runners go away
	l.teardown = disposables.NewComposite(disposables.Func(l.cancel), l.eventRunner, l.effectRunner)
	l.processor = newEventProcessor(startModel, cfg.Init, cfg.Update, cfg.Logger, l.publish, l.emitEffect)

	if cfg.EffectHandler != nil {
		l.startEffectHandler(cfg.EffectHandler)
	}
	if cfg.EventSource != nil {
		l.forward(cfg.EventSource.Events(l.ctx))
	}

	l.eventRunner.Post(func() {
		if l.disposed.Load() {
			return
		}
		if err := l.processor.Init(); err != nil {
			log.Error().Err(err).Msg("loop init failed")
		}
	})

	return l
}

// startEffectHandler runs the handler as one task under the supervising scope and
// feeds its events back into the event pipeline.
func (l *Loop[M, E, F]) startEffectHandler(handler EffectHandler[F, E]) {
	events := make(chan E)
	go func() {
		defer close(l.handlerDone)
		err := handler(l.ctx, l.effects, events)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("effect handler stopped")
		}
	}()
	l.forward(events)
}

// forward posts every event read from ch until ch closes or the scope ends.
func (l *Loop[M, E, F]) forward(ch <-chan E) {
	go func() {
		for {
			select {
			case <-l.ctx.Done():
				return
			case event, ok := <-ch:
				if !ok {
					return
				}
				l.post(event)
			}
		}
	}()
}

func (l *Loop[M, E, F]) post(event E) {
	l.eventRunner.Post(func() {
		if l.disposed.Load() {
			return
		}
		l.processor.Update(event)
	})
}

// emitEffect hands f to the effect handler on the effect runner. Effects emitted
// after the handler has returned are dropped.
func (l *Loop[M, E, F]) emitEffect(f F) {
	if !l.hasHandler {
		return
	}
	l.effectRunner.Post(func() {
		select {
		case l.effects <- f:
		case <-l.handlerDone:
		case <-l.ctx.Done():
		}
	})
}

// publish records model as current and queues it for every observer.
func (l *Loop[M, E, F]) publish(model M) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = model
	for _, o := range l.observers {
		o.models.Push(model)
	}
}

// DispatchEvent queues event for processing. Never blocks.
func (l *Loop[M, E, F]) DispatchEvent(event E) error {
	if l.disposed.Load() {
		return fmt.Errorf("cannot dispatch events after disposal: %w", ErrDisposed)
	}
	l.post(event)
	return nil
}

// Observe returns a channel that yields the current model, then every published
// model in order. The channel is closed when the loop is disposed or ctx is done.
func (l *Loop[M, E, F]) Observe(ctx context.Context) (<-chan M, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.disposed.Load() {
		return nil, fmt.Errorf("cannot observe a disposed loop: %w", ErrDisposed)
	}

	id := l.nextID
	l.nextID++
	o := newObserver[M]()
	o.models.Push(l.current)
	l.observers[id] = o

	go func() {
		o.run(ctx, l.ctx)
		l.mu.Lock()
		delete(l.observers, id)
		l.mu.Unlock()
	}()

	return o.out, nil
}

// MostRecentModel returns the last published model, or the start model before init.
func (l *Loop[M, E, F]) MostRecentModel() M {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Disposed reports whether Dispose has been called.
func (l *Loop[M, E, F]) Disposed() bool {
	return l.disposed.Load()
}

// Dispose cancels the supervising scope, ending the effect handler, event sources
// and observers, and disposes both runners. Safe to call multiple times.
func (l *Loop[M, E, F]) Dispose() {
	l.mu.Lock()
	l.disposed.Store(true)
	l.mu.Unlock()

	l.teardown.Dispose()
}

// observer buffers published models for one Observe channel.
type observer[M any] struct {
	models *queue.Unbounded[M]
	out    chan M
}

func newObserver[M any]() *observer[M] {
	return &observer[M]{
		models: queue.New[M](),
		out:    make(chan M),
	}
}

func (o *observer[M]) run(ctx, loopCtx context.Context) {
	defer close(o.out)
	defer o.models.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-loopCtx.Done():
			return
		case <-o.models.Ready():
			for _, m := range o.models.Drain() {
				select {
				case o.out <- m:
				case <-ctx.Done():
					return
				case <-loopCtx.Done():
					return
				}
			}
		}
	}
}
