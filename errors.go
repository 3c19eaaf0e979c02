package loopx

import "errors"

var (
	// ErrDisposed is returned by operations on a loop that has been disposed.
	ErrDisposed = errors.New("loop has already been disposed")

	// ErrIllegalState is wrapped by controller errors raised from a state that
	// forbids the operation.
	ErrIllegalState = errors.New("illegal state")

	// ErrAlreadyInitialized is returned when init runs twice on one event processor.
	ErrAlreadyInitialized = errors.New("init called more than once")
)
