// Package loopx is a unidirectional-dataflow runtime.
//
// A loop owns one model. Events go in, a pure Update function turns the current model
// and an event into a Next: an optional new model plus effects. New models are
// published to observers and effects are handed to an EffectHandler, whose events
// flow back into the loop.
//
//	update := func(m int, e string) loopx.Next[int, string] {
//		if e == "inc" {
//			return loopx.NewNext(m+1, "log")
//		}
//		return loopx.NoChange[int, string]()
//	}
//	factory := loopx.NewBuilder(update, handler)
//	loop := factory.StartFrom(0)
//	defer loop.Dispose()
//	_ = loop.DispatchEvent("inc")
//
// A Controller owns a loop across connect/start/stop cycles and forwards published
// models to a connected view.
//
// Concurrency model:
//   - Init and Update only run on the loop's event runner, one call at a time
//   - DispatchEvent, Observe and Dispose are safe from any goroutine
//   - Posting work never blocks; queues are unbounded
package loopx
