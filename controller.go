package loopx

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/comalice/loopx/internal/dispatch"
	"github.com/comalice/loopx/runners"
)

// stateKind names the controller lifecycle states.
type stateKind int

const (
	stateInit stateKind = iota
	stateCreated
	stateRunning
	stateDisposed
)

func (k stateKind) String() string {
	switch k {
	case stateInit:
		return "init"
	case stateCreated:
		return "created"
	case stateRunning:
		return "running"
	case stateDisposed:
		return "disposed"
	default:
		return fmt.Sprintf("stateKind(%d)", int(k))
	}
}

// controllerState is an immutable snapshot; transitions swap in a new one.
type controllerState[M, E, F any] struct {
	kind     stateKind
	model    M                  // starting model (init, created, running)
	renderer *safeConnection[M] // created, running
	loop     *Loop[M, E, F]     // running
	cancel   context.CancelFunc // running: stops model observation
}

// delivery is one model bound for the renderer of a particular running state.
type delivery[M, E, F any] struct {
	state *controllerState[M, E, F]
	model M
}

// ControllerOption configures a Controller.
type ControllerOption func(*controllerOptions)

type controllerOptions struct {
	viewRunner runners.WorkRunner
}

// WithViewRunner sets the runner that delivers models to the connected view.
// Defaults to a dedicated serial runner.
func WithViewRunner(r runners.WorkRunner) ControllerOption {
	return func(o *controllerOptions) {
		o.viewRunner = r
	}
}

// Controller starts and stops loops from a Factory and binds them to a view.
//
// Lifecycle: init --Connect--> created --Start--> running --Stop--> created
// --Disconnect--> init --Dispose--> disposed. A stopped loop's last model
// becomes the next start model, so Start after Stop continues where the previous
// loop left off. Operations from the wrong state return an error wrapping
// ErrIllegalState.
type Controller[M, E, F any] struct {
	factory Factory[M, E, F]

	// mu serializes transitions; readers load state without it.
	mu    sync.Mutex
	state atomic.Pointer[controllerState[M, E, F]]

	views *dispatch.Dispatcher[delivery[M, E, F]]
}

// NewController creates a controller in the init state holding defaultModel.
func NewController[M, E, F any](factory Factory[M, E, F], defaultModel M, opts ...ControllerOption) *Controller[M, E, F] {
	o := controllerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.viewRunner == nil {
		o.viewRunner = runners.NewSerial("loopx-view")
	}

	c := &Controller[M, E, F]{factory: factory}
	c.views = dispatch.New(o.viewRunner, c.render)
	c.state.Store(&controllerState[M, E, F]{kind: stateInit, model: defaultModel})
	return c
}

func illegalState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrIllegalState, fmt.Sprintf(format, args...))
}

// IsRunning reports whether a loop is active.
func (c *Controller[M, E, F]) IsRunning() bool {
	return c.state.Load().kind == stateRunning
}

// State returns the lifecycle state name: "init", "created", "running" or "disposed".
func (c *Controller[M, E, F]) State() string {
	return c.state.Load().kind.String()
}

// Model returns the running loop's current model, or the model the next Start
// will begin from.
func (c *Controller[M, E, F]) Model() M {
	s := c.state.Load()
	if s.kind == stateRunning {
		return s.loop.MostRecentModel()
	}
	return s.model
}

// Connect binds a view. The view receives an event consumer and returns the
// connection that renders models. Allowed only in the init state.
func (c *Controller[M, E, F]) Connect(view Connectable[M, E]) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state.Load()
	switch s.kind {
	case stateDisposed:
		return illegalState("cannot connect: controller disposed")
	case stateCreated:
		return illegalState("cannot connect: already connected")
	case stateRunning:
		return illegalState("cannot connect: loop is running")
	}

	renderer, err := connectSafely(view, c.dispatchEvent)
	if err != nil {
		return fmt.Errorf("connect view: %w", err)
	}

	c.state.Store(&controllerState[M, E, F]{kind: stateCreated, model: s.model, renderer: renderer})
	return nil
}

// Disconnect disposes the view connection. Allowed only in the created state.
func (c *Controller[M, E, F]) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state.Load()
	switch s.kind {
	case stateInit, stateDisposed:
		return illegalState("cannot disconnect: not connected")
	case stateRunning:
		return illegalState("cannot disconnect: loop is running")
	}

	s.renderer.Dispose()
	c.state.Store(&controllerState[M, E, F]{kind: stateInit, model: s.model})
	return nil
}

// Start builds a loop from the current starting model and forwards its models to
// the view. Allowed only in the created state.
func (c *Controller[M, E, F]) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state.Load()
	switch s.kind {
	case stateInit, stateDisposed:
		return illegalState("cannot start: no view connected")
	case stateRunning:
		return illegalState("cannot start: already running")
	}

	loop := c.factory.StartFrom(s.model)
	ctx, cancel := context.WithCancel(context.Background())
	models, err := loop.Observe(ctx)
	if err != nil {
		cancel()
		loop.Dispose()
		return fmt.Errorf("observe loop: %w", err)
	}

	running := &controllerState[M, E, F]{
		kind:     stateRunning,
		model:    s.model,
		renderer: s.renderer,
		loop:     loop,
		cancel:   cancel,
	}
	c.state.Store(running)

	go func() {
		for m := range models {
			c.views.Accept(delivery[M, E, F]{state: running, model: m})
		}
	}()
	return nil
}

// Stop disposes the running loop and keeps its last model as the next starting
// model. Allowed only in the running state.
func (c *Controller[M, E, F]) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state.Load()
	if s.kind != stateRunning {
		return illegalState("cannot stop: not running")
	}

	s.cancel()
	s.loop.Dispose()
	last := s.loop.MostRecentModel()

	c.state.Store(&controllerState[M, E, F]{kind: stateCreated, model: last, renderer: s.renderer})
	return nil
}

// ReplaceModel changes the model the next Start begins from.
// Not allowed while running.
func (c *Controller[M, E, F]) ReplaceModel(model M) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state.Load()
	switch s.kind {
	case stateRunning:
		return illegalState("cannot replace model while running")
	case stateDisposed:
		return illegalState("cannot replace model: controller disposed")
	}

	next := *s
	next.model = model
	c.state.Store(&next)
	return nil
}

// Dispose releases the view runner. Allowed only in the init state, so a
// connected view must be disconnected first. Safe to call again once disposed.
func (c *Controller[M, E, F]) Dispose() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.state.Load()
	switch s.kind {
	case stateDisposed:
		return nil
	case stateCreated, stateRunning:
		return illegalState("cannot dispose: view still connected")
	}

	c.views.Dispose()
	c.state.Store(&controllerState[M, E, F]{kind: stateDisposed, model: s.model})
	return nil
}

// dispatchEvent forwards view events to the running loop and drops them otherwise.
func (c *Controller[M, E, F]) dispatchEvent(event E) {
	s := c.state.Load()
	if s.kind != stateRunning {
		return
	}
	// A disposed loop here means Stop won the race; the event is dropped.
	_ = s.loop.DispatchEvent(event)
}

// render runs on the view runner. Models from a loop that has since been
// stopped are dropped.
func (c *Controller[M, E, F]) render(d delivery[M, E, F]) {
	if c.state.Load() != d.state {
		return
	}
	d.state.renderer.Accept(d.model)
}

// safeConnection guards a view connection so nothing reaches the view after
// Dispose and events the view emits after Dispose are ignored.
type safeConnection[M any] struct {
	mu       sync.Mutex
	disposed atomic.Bool
	inner    Connection[M]
}

func connectSafely[M, E any](view Connectable[M, E], events func(E)) (*safeConnection[M], error) {
	sc := &safeConnection[M]{}
	inner, err := view.Connect(func(e E) {
		if sc.disposed.Load() {
			return
		}
		events(e)
	})
	if err != nil {
		return nil, err
	}
	if inner == nil {
		return nil, errors.New("view returned a nil connection")
	}
	sc.inner = inner
	return sc, nil
}

func (sc *safeConnection[M]) Accept(model M) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.disposed.Load() {
		return
	}
	sc.inner.Accept(model)
}

func (sc *safeConnection[M]) Dispose() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.disposed.Swap(true) {
		return
	}
	sc.inner.Dispose()
}
