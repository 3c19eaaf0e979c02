package testutil

import (
	"reflect"
	"testing"

	"github.com/comalice/loopx"
)

// NextAssertion checks the Next produced by the last event of an UpdateSpec.
type NextAssertion[M, F any] func(t testing.TB, next loopx.Next[M, F])

// FirstAssertion checks the First produced by an InitSpec.
type FirstAssertion[M, F any] func(t testing.TB, first loopx.First[M, F])

// UpdateSpec is a given/when/then harness for an update function.
//
//	NewUpdateSpec(update).
//		Given(model).
//		When(eventA, eventB).
//		Then(t, HasModel[M, F](want), HasNoEffects[M, F]())
type UpdateSpec[M, E, F any] struct {
	update loopx.Update[M, E, F]
}

// NewUpdateSpec wraps update.
func NewUpdateSpec[M, E, F any](update loopx.Update[M, E, F]) UpdateSpec[M, E, F] {
	return UpdateSpec[M, E, F]{update: update}
}

// Given fixes the starting model.
func (s UpdateSpec[M, E, F]) Given(model M) UpdateWhen[M, E, F] {
	return UpdateWhen[M, E, F]{update: s.update, model: model}
}

// UpdateWhen holds the starting model of an UpdateSpec.
type UpdateWhen[M, E, F any] struct {
	update loopx.Update[M, E, F]
	model  M
}

// When applies the events in order, threading the model through each Next that
// carries one. Assertions apply to the Next of the last event.
func (w UpdateWhen[M, E, F]) When(event E, more ...E) UpdateThen[M, E, F] {
	return UpdateThen[M, E, F]{
		update: w.update,
		model:  w.model,
		events: append([]E{event}, more...),
	}
}

// UpdateThen runs the update and checks the result.
type UpdateThen[M, E, F any] struct {
	update loopx.Update[M, E, F]
	model  M
	events []E
}

// Then runs the events and applies every assertion to the last Next.
func (th UpdateThen[M, E, F]) Then(t testing.TB, assertions ...NextAssertion[M, F]) {
	t.Helper()
	model := th.model
	var last loopx.Next[M, F]
	for _, e := range th.events {
		last = th.update(model, e)
		last.IfHasModel(func(m M) { model = m })
	}
	for _, a := range assertions {
		a(t, last)
	}
}

// ThenPanics fails t unless one of the events panics.
func (th UpdateThen[M, E, F]) ThenPanics(t testing.TB) {
	t.Helper()
	panicked := func() (p bool) {
		defer func() { p = recover() != nil }()
		model := th.model
		for _, e := range th.events {
			th.update(model, e).IfHasModel(func(m M) { model = m })
		}
		return false
	}()
	if !panicked {
		t.Error("expected update to panic, but it returned normally")
	}
}

// InitSpec is a when/then harness for an init function.
type InitSpec[M, F any] struct {
	init loopx.Init[M, F]
}

// NewInitSpec wraps init.
func NewInitSpec[M, F any](init loopx.Init[M, F]) InitSpec[M, F] {
	return InitSpec[M, F]{init: init}
}

// When fixes the model init is called with.
func (s InitSpec[M, F]) When(model M) InitThen[M, F] {
	return InitThen[M, F]{init: s.init, model: model}
}

// InitThen runs init and checks the result.
type InitThen[M, F any] struct {
	init  loopx.Init[M, F]
	model M
}

// Then runs init and applies every assertion.
func (th InitThen[M, F]) Then(t testing.TB, assertions ...FirstAssertion[M, F]) {
	t.Helper()
	first := th.init(th.model)
	for _, a := range assertions {
		a(t, first)
	}
}

// ThenPanics fails t unless init panics.
func (th InitThen[M, F]) ThenPanics(t testing.TB) {
	t.Helper()
	panicked := func() (p bool) {
		defer func() { p = recover() != nil }()
		th.init(th.model)
		return false
	}()
	if !panicked {
		t.Error("expected init to panic, but it returned normally")
	}
}

// HasModel asserts the Next carries want.
func HasModel[M, F any](want M) NextAssertion[M, F] {
	return func(t testing.TB, next loopx.Next[M, F]) {
		t.Helper()
		got, ok := next.Model()
		if !ok {
			t.Errorf("Next has no model, want %v", want)
			return
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Next model = %v, want %v", got, want)
		}
	}
}

// HasNoModel asserts the Next leaves the model unchanged.
func HasNoModel[M, F any]() NextAssertion[M, F] {
	return func(t testing.TB, next loopx.Next[M, F]) {
		t.Helper()
		if m, ok := next.Model(); ok {
			t.Errorf("Next has model %v, want none", m)
		}
	}
}

// HasNoEffects asserts the Next dispatches nothing.
func HasNoEffects[M, F any]() NextAssertion[M, F] {
	return func(t testing.TB, next loopx.Next[M, F]) {
		t.Helper()
		if next.HasEffects() {
			t.Errorf("Next has effects %v, want none", next.Effects())
		}
	}
}

// HasEffects asserts the Next dispatches at least want, in any order.
func HasEffects[M, F any](want ...F) NextAssertion[M, F] {
	return func(t testing.TB, next loopx.Next[M, F]) {
		t.Helper()
		if missing := missingEffects(next.Effects(), want); len(missing) > 0 {
			t.Errorf("Next effects %v missing %v", next.Effects(), missing)
		}
	}
}

// FirstHasModel asserts the First carries want.
func FirstHasModel[M, F any](want M) FirstAssertion[M, F] {
	return func(t testing.TB, first loopx.First[M, F]) {
		t.Helper()
		if !reflect.DeepEqual(first.Model(), want) {
			t.Errorf("First model = %v, want %v", first.Model(), want)
		}
	}
}

// FirstHasNoEffects asserts the First dispatches nothing.
func FirstHasNoEffects[M, F any]() FirstAssertion[M, F] {
	return func(t testing.TB, first loopx.First[M, F]) {
		t.Helper()
		if first.HasEffects() {
			t.Errorf("First has effects %v, want none", first.Effects())
		}
	}
}

// FirstHasEffects asserts the First dispatches at least want, in any order.
func FirstHasEffects[M, F any](want ...F) FirstAssertion[M, F] {
	return func(t testing.TB, first loopx.First[M, F]) {
		t.Helper()
		if missing := missingEffects(first.Effects(), want); len(missing) > 0 {
			t.Errorf("First effects %v missing %v", first.Effects(), missing)
		}
	}
}

func missingEffects[F any](got, want []F) []F {
	var missing []F
	for _, w := range want {
		found := false
		for _, g := range got {
			if reflect.DeepEqual(g, w) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, w)
		}
	}
	return missing
}
