package loopx

// eventProcessor applies init and update to the loop's model.
//
// Not safe for concurrent use: the loop only calls it from the event runner.
// Events that arrive before Init are held and replayed, in order, once Init runs.
type eventProcessor[M, E, F any] struct {
	init   Init[M, F]
	update Update[M, E, F]
	logger Logger[M, E, F]

	model       M
	initialized bool
	pending     []E

	publish func(M)
	emit    func(F)
}

func newEventProcessor[M, E, F any](
	startModel M,
	init Init[M, F],
	update Update[M, E, F],
	logger Logger[M, E, F],
	publish func(M),
	emit func(F),
) *eventProcessor[M, E, F] {
	return &eventProcessor[M, E, F]{
		init:    init,
		update:  update,
		logger:  logger,
		model:   startModel,
		publish: publish,
		emit:    emit,
	}
}

// Init runs init once, publishes its model, emits its effects and replays held events.
func (p *eventProcessor[M, E, F]) Init() error {
	if p.initialized {
		return ErrAlreadyInitialized
	}

	first, err := loggedInit(p.logger, p.init, p.model)
	if err != nil {
		return err
	}
	p.initialized = true

	p.model = first.Model()
	p.publish(p.model)
	for _, f := range first.Effects() {
		p.emit(f)
	}

	pending := p.pending
	p.pending = nil
	for _, e := range pending {
		p.Update(e)
	}
	return nil
}

// Update processes one event, or holds it until Init has run.
func (p *eventProcessor[M, E, F]) Update(event E) {
	if !p.initialized {
		p.pending = append(p.pending, event)
		return
	}

	next, err := loggedUpdate(p.logger, p.update, p.model, event)
	if err != nil {
		return
	}

	if model, ok := next.Model(); ok {
		p.model = model
		p.publish(model)
	}
	for _, f := range next.Effects() {
		p.emit(f)
	}
}

// CurrentModel returns the processor's model. Event runner only.
func (p *eventProcessor[M, E, F]) CurrentModel() M {
	return p.model
}
