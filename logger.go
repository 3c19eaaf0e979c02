package loopx

import (
	"fmt"

	"github.com/rs/zerolog/log"
)

// Logger observes init and update calls.
//
// Hooks run synchronously on the event runner, next to the function they describe,
// so they must not block. The ExceptionDuring hooks report a panic raised by init or
// update; that is a programmer error and the loop does not recover the transition.
type Logger[M, E, F any] interface {
	BeforeInit(model M)
	AfterInit(model M, result First[M, F])
	ExceptionDuringInit(model M, err error)
	BeforeUpdate(model M, event E)
	AfterUpdate(model M, event E, result Next[M, F])
	ExceptionDuringUpdate(model M, event E, err error)
}

// NoopLogger ignores everything.
type NoopLogger[M, E, F any] struct{}

func (NoopLogger[M, E, F]) BeforeInit(M) {}
func (NoopLogger[M, E, F]) AfterInit(M, First[M, F]) {}
func (NoopLogger[M, E, F]) ExceptionDuringInit(M, error) {}
func (NoopLogger[M, E, F]) BeforeUpdate(M, E) {}
func (NoopLogger[M, E, F]) AfterUpdate(M, E, Next[M, F]) {}
func (NoopLogger[M, E, F]) ExceptionDuringUpdate(M, E, error) {}

// Loggers fans every hook out to ls, in order.
func Loggers[M, E, F any](ls ...Logger[M, E, F]) Logger[M, E, F] {
	return multiLogger[M, E, F](append([]Logger[M, E, F](nil), ls...))
}

type multiLogger[M, E, F any] []Logger[M, E, F]

func (ml multiLogger[M, E, F]) BeforeInit(model M) {
	for _, l := range ml {
		l.BeforeInit(model)
	}
}

func (ml multiLogger[M, E, F]) AfterInit(model M, result First[M, F]) {
	for _, l := range ml {
		l.AfterInit(model, result)
	}
}

func (ml multiLogger[M, E, F]) ExceptionDuringInit(model M, err error) {
	for _, l := range ml {
		l.ExceptionDuringInit(model, err)
	}
}

func (ml multiLogger[M, E, F]) BeforeUpdate(model M, event E) {
	for _, l := range ml {
		l.BeforeUpdate(model, event)
	}
}

func (ml multiLogger[M, E, F]) AfterUpdate(model M, event E, result Next[M, F]) {
	for _, l := range ml {
		l.AfterUpdate(model, event, result)
	}
}

func (ml multiLogger[M, E, F]) ExceptionDuringUpdate(model M, event E, err error) {
	for _, l := range ml {
		l.ExceptionDuringUpdate(model, event, err)
	}
}

// panicError converts a recovered value into an error.
func panicError(r any) error {
	if err, ok := r.(error); ok {
		return fmt.Errorf("panic: %w", err)
	}
	return fmt.Errorf("panic: %v", r)
}

// loggedInit runs init between the logger hooks, converting a panic in init into an error.
func loggedInit[M, E, F any](logger Logger[M, E, F], init Init[M, F], model M) (First[M, F], error) {
	logger.BeforeInit(model)
	first, err := callInit(init, model)
	if err != nil {
		logger.ExceptionDuringInit(model, err)
		return first, err
	}
	hook("AfterInit", func() { logger.AfterInit(model, first) })
	return first, nil
}

// loggedUpdate runs update between the logger hooks, converting a panic in update into an error.
func loggedUpdate[M, E, F any](logger Logger[M, E, F], update Update[M, E, F], model M, event E) (Next[M, F], error) {
	logger.BeforeUpdate(model, event)
	next, err := callUpdate(update, model, event)
	if err != nil {
		logger.ExceptionDuringUpdate(model, event, err)
		return next, err
	}
	hook("AfterUpdate", func() { logger.AfterUpdate(model, event, next) })
	return next, nil
}

func callInit[M, F any](init Init[M, F], model M) (first First[M, F], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return init(model), nil
}

func callUpdate[M, E, F any](update Update[M, E, F], model M, event E) (next Next[M, F], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
		}
	}()
	return update(model, event), nil
}

// hook runs a logger callback. A panicking logger is reported and does not
// affect the result it was observing.
func hook(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Err(panicError(r)).Str("hook", name).Msg("logger hook panicked")
		}
	}()
	fn()
}
