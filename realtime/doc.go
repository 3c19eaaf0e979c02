// Package realtime provides a tick-based work runner for loopx.
//
// The tick runner differs from runners.Serial in when work executes:
//   - Tasks are batched and executed at fixed tick boundaries
//   - Execution order follows posting order via sequence numbers
//   - A bounded number of tasks run per tick; the rest roll over
//
// # Example Usage
//
//	tick := realtime.NewTickRunner(realtime.Config{
//		TickRate: 16667 * time.Microsecond, // 60 FPS
//	})
//	loop := loopx.Create(ctx, model, loopx.Config[M, E, F]{
//		EventRunner: tick,
//		// ...
//	})
//
// Using a tick runner as the event runner makes every update of a loop land on a tick,
// which suits game loops, fixed time-step simulations and reproducible replays.
//
// # Ordering Guarantees
//
//  1. Tasks run in the order they were posted (sequence number)
//  2. No two tasks run at the same time
//  3. A task posted during a tick runs on a later tick
//
// # Trade-offs vs Serial
//
// Latency is 0 to TickRate per task instead of immediate. Throughput is bounded by
// MaxTasksPerTick per tick.
package realtime
