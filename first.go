package loopx

// Init produces the first model and effects of a loop. Must be pure.
type Init[M, F any] func(model M) First[M, F]

// Update produces the transition for one event. Must be pure.
type Update[M, E, F any] func(model M, event E) Next[M, F]

// First is the result of Init: a model, always present, and zero or more effects.
type First[M, F any] struct {
	model   M
	effects []F
}

// NewFirst creates a First with model and effects.
func NewFirst[M, F any](model M, effects ...F) First[M, F] {
	return First[M, F]{model: model, effects: effects}
}

// Model returns the first model.
func (f First[M, F]) Model() M {
	return f.model
}

// Effects returns the effects to dispatch. Order carries no meaning.
func (f First[M, F]) Effects() []F {
	return f.effects
}

// HasEffects reports whether any effects are present.
func (f First[M, F]) HasEffects() bool {
	return len(f.effects) > 0
}

// Next is the result of Update: an optional model and zero or more effects.
// A Next without a model leaves the current model untouched.
type Next[M, F any] struct {
	model    M
	hasModel bool
	effects  []F
}

// NewNext creates a Next with a new model and effects.
func NewNext[M, F any](model M, effects ...F) Next[M, F] {
	return Next[M, F]{model: model, hasModel: true, effects: effects}
}

// Dispatch creates a Next with effects and no model change.
func Dispatch[M, F any](effects ...F) Next[M, F] {
	return Next[M, F]{effects: effects}
}

// NoChange creates an empty Next.
func NoChange[M, F any]() Next[M, F] {
	return Next[M, F]{}
}

// HasModel reports whether the Next carries a model.
func (n Next[M, F]) HasModel() bool {
	return n.hasModel
}

// Model returns the model and whether one is present.
func (n Next[M, F]) Model() (M, bool) {
	return n.model, n.hasModel
}

// ModelUnsafe returns the model. Panics if there is none.
func (n Next[M, F]) ModelUnsafe() M {
	if !n.hasModel {
		panic("loopx: no model in Next; check HasModel first")
	}
	return n.model
}

// IfHasModel calls fn with the model when one is present.
func (n Next[M, F]) IfHasModel(fn func(M)) {
	if n.hasModel {
		fn(n.model)
	}
}

// Effects returns the effects to dispatch.
func (n Next[M, F]) Effects() []F {
	return n.effects
}

// HasEffects reports whether any effects are present.
func (n Next[M, F]) HasEffects() bool {
	return len(n.effects) > 0
}
