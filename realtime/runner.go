package realtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// TickRunner is a runners.WorkRunner that executes posted tasks on a fixed tick.
type TickRunner struct {
	tickRate   time.Duration
	maxPerTick int
	ticker     *time.Ticker
	tickNum    uint64

	batch       []taskWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64
	disposed    bool

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// Config configures the tick runner.
type Config struct {
	TickRate        time.Duration // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxTasksPerTick int           // Tasks executed per tick (default: 1000)
}

// NewTickRunner starts a tick loop.
func NewTickRunner(cfg Config) *TickRunner {
	if cfg.MaxTasksPerTick <= 0 {
		cfg.MaxTasksPerTick = 1000
	}
	if cfg.TickRate <= 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}

	rt := &TickRunner{
		tickRate:   cfg.TickRate,
		maxPerTick: cfg.MaxTasksPerTick,
		ticker:     time.NewTicker(cfg.TickRate),
		batch:      make([]taskWithMeta, 0, cfg.MaxTasksPerTick),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	go rt.tickLoop()
	return rt
}

// Post queues task for the next tick. Thread-safe, never blocks.
func (rt *TickRunner) Post(task func()) {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if rt.disposed {
		return
	}
	rt.batch = append(rt.batch, taskWithMeta{
		run:         task,
		sequenceNum: rt.sequenceNum,
	})
	rt.sequenceNum++
}

// Dispose stops the tick loop and drops pending tasks.
func (rt *TickRunner) Dispose() {
	rt.once.Do(func() {
		rt.batchMu.Lock()
		rt.disposed = true
		dropped := len(rt.batch)
		rt.batch = nil
		rt.batchMu.Unlock()

		close(rt.done)
		rt.ticker.Stop()

		if dropped > 0 {
			log.Warn().Int("dropped", dropped).Msg("disposing tick runner with outstanding tasks")
		}

		select {
		case <-rt.stopped:
		case <-time.After(rt.tickRate + 100*time.Millisecond):
			log.Warn().Msg("tick runner shutdown timed out; a task is still executing")
		}
	})
}

// TickNumber returns the number of completed ticks.
func (rt *TickRunner) TickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}

// Pending returns the number of tasks waiting for a tick.
func (rt *TickRunner) Pending() int {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return len(rt.batch)
}

func (rt *TickRunner) tickLoop() {
	defer close(rt.stopped)

	for {
		select {
		case <-rt.done:
			return
		case <-rt.ticker.C:
			rt.processTick()

			rt.batchMu.Lock()
			rt.tickNum++
			rt.batchMu.Unlock()
		}
	}
}

// processTick runs one tick's worth of tasks.
func (rt *TickRunner) processTick() {
	tasks := rt.collectTasks()
	sortTasks(tasks)

	for _, task := range tasks {
		select {
		case <-rt.done:
			return
		default:
		}
		rt.runTask(task)
	}
}

// collectTasks takes up to maxPerTick tasks, leaving the remainder for later ticks.
func (rt *TickRunner) collectTasks() []taskWithMeta {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.batch) <= rt.maxPerTick {
		tasks := rt.batch
		rt.batch = make([]taskWithMeta, 0, rt.maxPerTick)
		return tasks
	}

	tasks := append([]taskWithMeta(nil), rt.batch[:rt.maxPerTick]...)
	rt.batch = append(make([]taskWithMeta, 0, rt.maxPerTick), rt.batch[rt.maxPerTick:]...)
	return tasks
}

func (rt *TickRunner) runTask(task taskWithMeta) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Uint64("sequence", task.sequenceNum).
				Err(fmt.Errorf("panic: %v", r)).
				Msg("tick task panicked")
		}
	}()
	task.run()
}
