package logging

import (
	"github.com/rs/zerolog"

	"github.com/comalice/loopx"
)

// Logger reports loop init and update through zerolog.
// Before/After hooks log at debug, exceptions at error.
type Logger[M, E, F any] struct {
	log zerolog.Logger
}

var _ loopx.Logger[int, string, bool] = Logger[int, string, bool]{}

// NewLogger wraps l. Pass log.Logger to use the global logger.
func NewLogger[M, E, F any](l zerolog.Logger) Logger[M, E, F] {
	return Logger[M, E, F]{log: l}
}

func (l Logger[M, E, F]) BeforeInit(model M) {
	l.log.Debug().Interface("model", model).Msg("init")
}

func (l Logger[M, E, F]) AfterInit(model M, result loopx.First[M, F]) {
	l.log.Debug().
		Interface("model", result.Model()).
		Int("effects", len(result.Effects())).
		Msg("init done")
}

func (l Logger[M, E, F]) ExceptionDuringInit(model M, err error) {
	l.log.Error().Err(err).Interface("model", model).Msg("init failed")
}

func (l Logger[M, E, F]) BeforeUpdate(model M, event E) {
	l.log.Debug().Interface("event", event).Msg("update")
}

func (l Logger[M, E, F]) AfterUpdate(model M, event E, result loopx.Next[M, F]) {
	ev := l.log.Debug().Interface("event", event).Int("effects", len(result.Effects()))
	if m, ok := result.Model(); ok {
		ev = ev.Interface("model", m)
	} else {
		ev = ev.Bool("no_change", true)
	}
	ev.Msg("update done")
}

func (l Logger[M, E, F]) ExceptionDuringUpdate(model M, event E, err error) {
	l.log.Error().Err(err).Interface("model", model).Interface("event", event).Msg("update failed")
}
