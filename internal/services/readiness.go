package services

import (
	"context"
	"time"
)

// ReadyState is the terminal state of a deadline-bounded startup step
type ReadyState int

const (
	// StateReady means the step completed before the deadline
	StateReady ReadyState = iota
	// StateTimedOut means the deadline elapsed before the step completed
	StateTimedOut
	// StateFailed means the step completed with an error
	StateFailed
)

// String returns the state name for logging
func (s ReadyState) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateTimedOut:
		return "timed_out"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// Await runs fn under a hard deadline and collapses the outcome into a typed
// state, so one slow dependency cannot leave a caller hanging on a loading
// flag. The function's context is cancelled when the deadline elapses.
func Await(ctx context.Context, timeout time.Duration, fn func(context.Context) error) (ReadyState, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1) // Buffered to prevent goroutine leak
	go func() {
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		if err != nil {
			return StateFailed, err
		}
		return StateReady, nil
	case <-ctx.Done():
		return StateTimedOut, ctx.Err()
	}
}
