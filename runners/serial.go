package runners

import (
	"sync"
	"time"

	"github.com/comalice/loopx/internal/queue"
	"github.com/rs/zerolog/log"
)

// disposeTimeout bounds how long Dispose waits for the task in flight.
const disposeTimeout = 100 * time.Millisecond

// Serial runs tasks one at a time on a dedicated goroutine.
// The backlog is unbounded so Post never blocks.
type Serial struct {
	name    string
	tasks   *queue.Unbounded[func()]
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewSerial starts a runner goroutine. name tags its log lines.
func NewSerial(name string) *Serial {
	s := &Serial{
		name:    name,
		tasks:   queue.New[func()](),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.run()
	return s
}

// Post queues task. Tasks posted after Dispose are dropped.
func (s *Serial) Post(task func()) {
	if !s.tasks.Push(task) {
		log.Debug().Str("runner", s.name).Msg("post after dispose; task dropped")
	}
}

func (s *Serial) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case <-s.tasks.Ready():
			for _, task := range s.tasks.Drain() {
				select {
				case <-s.done:
					return
				default:
				}
				runTask(s.name, task)
			}
		}
	}
}

// Dispose stops the goroutine after the task in flight and discards the backlog.
// Safe to call multiple times.
func (s *Serial) Dispose() {
	s.once.Do(func() {
		close(s.done)
		if dropped := s.tasks.Close(); dropped > 0 {
			log.Warn().
				Str("runner", s.name).
				Int("dropped", dropped).
				Msg("disposing runner with outstanding tasks")
		}

		select {
		case <-s.stopped:
		case <-time.After(disposeTimeout):
			log.Warn().Str("runner", s.name).Msg("runner shutdown timed out; a task is still executing")
		}
	})
}
