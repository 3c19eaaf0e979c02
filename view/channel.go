// Package view provides a headless, channel-backed view for controllers.
package view

import (
	"errors"
	"sync"

	"github.com/comalice/loopx"
)

// ErrAlreadyConnected is returned by Connect while another controller holds the view.
var ErrAlreadyConnected = errors.New("view already connected")

// Channel is a Connectable that forwards rendered models to a Go channel.
// Non-blocking render with drop on backpressure.
type Channel[M, E any] struct {
	models chan M

	mu     sync.Mutex
	output loopx.Consumer[E]
}

// NewChannel creates a Channel whose Models channel holds up to buffer models.
func NewChannel[M, E any](buffer int) *Channel[M, E] {
	return &Channel[M, E]{models: make(chan M, buffer)}
}

// Models returns the channel rendered models are delivered on.
func (c *Channel[M, E]) Models() <-chan M {
	return c.models
}

// Connect captures output for Send. A Channel can be connected to one controller at a time.
func (c *Channel[M, E]) Connect(output loopx.Consumer[E]) (loopx.Connection[M], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.output != nil {
		return nil, ErrAlreadyConnected
	}
	c.output = output
	return &connection[M, E]{view: c}, nil
}

// Connected reports whether a controller currently holds the connection.
func (c *Channel[M, E]) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.output != nil
}

// Send emits event to the connected controller. Returns false when not connected.
func (c *Channel[M, E]) Send(event E) bool {
	c.mu.Lock()
	output := c.output
	c.mu.Unlock()
	if output == nil {
		return false
	}
	output(event)
	return true
}

type connection[M, E any] struct {
	view *Channel[M, E]
	once sync.Once
}

func (cn *connection[M, E]) Accept(model M) {
	select {
	case cn.view.models <- model:
	default:
		// Non-blocking drop
	}
}

func (cn *connection[M, E]) Dispose() {
	cn.once.Do(func() {
		cn.view.mu.Lock()
		cn.view.output = nil
		cn.view.mu.Unlock()
	})
}
