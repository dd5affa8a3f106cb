package models

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel domain errors. Callers branch with errors.Is instead of matching
// message text.
var (
	// ErrNotFound means a referenced course, module, lesson, or user does
	// not exist. It is propagated to the caller, never coerced to an empty
	// success.
	ErrNotFound = errors.New("not found")
	// ErrPermissionDenied means the principal is authenticated but lacks
	// entitlement. Distinct from an authentication failure in user messaging.
	ErrPermissionDenied = errors.New("permission denied")
)

// TokenOutcome classifies the terminal state of a token validation attempt
type TokenOutcome string

const (
	// TokenRejected means the provider responded with a non-2xx status or an
	// unparseable body after content negotiation
	TokenRejected TokenOutcome = "rejected"
	// TokenTimedOut means the validation attempt hit its hard deadline
	TokenTimedOut TokenOutcome = "timed_out"
	// TokenUnreachable means a connection-level failure before any response
	TokenUnreachable TokenOutcome = "unreachable"
)

// TokenValidationError is returned by the verification gateway for any
// non-validated outcome. Body carries the raw provider response for
// diagnostics when the rejection came from an unparseable or error body.
type TokenValidationError struct {
	Outcome TokenOutcome
	Status  int
	Body    string
	Err     error
}

func (e *TokenValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("token validation %s: %v", e.Outcome, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("token validation %s: status %d", e.Outcome, e.Status)
	}
	return fmt.Sprintf("token validation %s", e.Outcome)
}

func (e *TokenValidationError) Unwrap() error {
	return e.Err
}

// RateLimitedError carries the provider-given wait duration verbatim. It is
// never auto-retried; the caller surfaces the wait to the user and disables
// the retry action until it elapses.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited by provider, retry after %s", e.RetryAfter)
}
