package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrEmptyResponse is returned when a service answers with no body.
var ErrEmptyResponse = errors.New("empty response")

// CollaboratorError wraps any failure of a remote catalog service.
type CollaboratorError struct {
	Service    string // "vizier", "simbad"
	Op         string // e.g. "query_region", "query_identifiers"
	StatusCode int    // 0 when no HTTP response was received
	Err        error
}

func (e *CollaboratorError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s failed: HTTP %d: %v", e.Service, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Service, e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a CollaboratorError for service/op. Errors that already
// are CollaboratorErrors and context errors pass through unchanged.
func Wrap(service, op string, err error) error {
	if err == nil {
		return nil
	}
	if IsCollaboratorError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &CollaboratorError{Service: service, Op: op, Err: err}
}

// IsCollaboratorError reports whether err came from a remote service.
func IsCollaboratorError(err error) bool {
	var ce *CollaboratorError
	return errors.As(err, &ce)
}

// IsRetryable reports whether err is transient: a transport failure, HTTP 429
// or a 5xx response. Cancellation of the caller's context is returned bare by
// Client and is never retryable.
func IsRetryable(err error) bool {
	var ce *CollaboratorError
	if !errors.As(err, &ce) {
		return false
	}
	switch {
	case ce.StatusCode == 0:
		return !errors.Is(ce.Err, ErrEmptyResponse)
	case ce.StatusCode == http.StatusTooManyRequests:
		return true
	case ce.StatusCode >= 500:
		return true
	default:
		return false
	}
}
