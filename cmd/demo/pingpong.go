package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/comalice/loopx"
)

// Model is the demo state: a counter that keeps rising and a message that
// alternates between ping and pong.
type Model struct {
	Count   int    `json:"count" yaml:"count"`
	Message string `json:"message" yaml:"message"`
}

func defaultModel() Model {
	return Model{Message: "ping"}
}

type Event interface{ isEvent() }

type Increment struct{}

type Message struct{ Value string }

func (Increment) isEvent() {}
func (Message) isEvent()   {}

type Effect interface{ isEffect() }

type IncrementLater struct{}

type GetNextMessage struct{ Current string }

func (IncrementLater) isEffect() {}
func (GetNextMessage) isEffect() {}

func initModel(model Model) loopx.First[Model, Effect] {
	return loopx.NewFirst[Model, Effect](model, IncrementLater{}, GetNextMessage{Current: model.Message})
}

func update(model Model, event Event) loopx.Next[Model, Effect] {
	switch e := event.(type) {
	case Increment:
		model.Count++
		return loopx.NewNext[Model, Effect](model, IncrementLater{})
	case Message:
		model.Message = e.Value
		return loopx.NewNext[Model, Effect](model, GetNextMessage{Current: e.Value})
	default:
		return loopx.NoChange[Model, Effect]()
	}
}

// delays holds the pause before each effect answers.
type delays struct {
	increment time.Duration
	message   time.Duration
}

var defaultDelays = delays{increment: 2300 * time.Millisecond, message: 1200 * time.Millisecond}

// effectHandler answers each effect after a delay. Effects run concurrently.
func (d delays) effectHandler(ctx context.Context, effects <-chan Effect, events chan<- Event) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	send := func(wait time.Duration, e Event) {
		defer wg.Done()
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
		select {
		case events <- e:
		case <-ctx.Done():
		}
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f, ok := <-effects:
			if !ok {
				return nil
			}
			wg.Add(1)
			switch f := f.(type) {
			case IncrementLater:
				go send(d.increment, Increment{})
			case GetNextMessage:
				go send(d.message, Message{Value: nextMessage(f.Current)})
			default:
				wg.Done()
			}
		}
	}
}

func nextMessage(current string) string {
	if current == "ping" {
		return "pong"
	}
	return "ping"
}

func newFactory(d delays, logger loopx.Logger[Model, Event, Effect]) loopx.Builder[Model, Event, Effect] {
	return loopx.NewBuilder(update, d.effectHandler).
		WithInit(initModel).
		WithLogger(logger)
}

// eventRequest is the JSON body accepted by POST /events.
type eventRequest struct {
	Type  string `json:"type" binding:"required"`
	Value string `json:"value"`
}

func (r eventRequest) event() (Event, error) {
	switch r.Type {
	case "increment":
		return Increment{}, nil
	case "message":
		if r.Value == "" {
			return nil, fmt.Errorf("message event needs a value")
		}
		return Message{Value: r.Value}, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", r.Type)
	}
}
