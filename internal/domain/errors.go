package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCoordinate rejects out-of-range or placeholder (0,0) input.
	ErrInvalidCoordinate = errors.New("invalid origin/destination coordinates (missing or placeholder 0,0)")

	// ErrNotFound signals an unknown request id.
	ErrNotFound = errors.New("request_id not found")
)

// ProviderError is a structured upstream failure. It is logged and absorbed
// by the routing fallback chain and never reaches planner callers.
type ProviderError struct {
	Provider string
	Status   int
	Reason   string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: upstream status %d: %s", e.Provider, e.Status, e.Reason)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Reason)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is worth a bounded retry: rate
// limits and server errors only, never client errors or malformed payloads.
func (e *ProviderError) Retryable() bool {
	return e.Status == 429 || e.Status >= 500
}
