package analyzer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// GenerationError is any failure to obtain a completion: transport errors,
// non-success status codes, explicit API errors and empty completions.
// It is distinct from a completion that cannot be parsed, which is never an
// error.
type GenerationError struct {
	Provider   string
	StatusCode int // 0 when no HTTP response was received
	Message    string
	Err        error
}

func (e *GenerationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s generation failed (status %d): %s", e.Provider, e.StatusCode, truncate(msg, 200))
	}
	return fmt.Sprintf("%s generation failed: %s", e.Provider, truncate(msg, 200))
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient: rate limiting, server
// errors and transport failures other than cancellation.
func (e *GenerationError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests, e.StatusCode >= 500:
		return true
	case e.StatusCode != 0:
		return false
	case errors.Is(e.Err, context.Canceled), errors.Is(e.Err, context.DeadlineExceeded):
		return false
	}
	return e.Err != nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
