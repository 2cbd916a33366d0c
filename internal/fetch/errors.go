package fetch

import (
	"errors"
	"fmt"
)

// ErrBodyTooLarge is returned when a response body exceeds the configured
// size cap. Not retryable: the same URL will be just as large next time.
var ErrBodyTooLarge = errors.New("response body too large")

// StatusError is returned when EDGAR answers with a non-200 status.
// It carries the status code so callers and the retry logic can
// distinguish transient refusals (403, 5xx) from stable answers (404).
type StatusError struct {
	// URL is the request URL.
	URL string

	// StatusCode is the HTTP status code received.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d for %s", e.StatusCode, e.URL)
}

// Retryable reports whether the status is in the transient set.
func (e *StatusError) Retryable() bool {
	return retryableStatuses[e.StatusCode]
}
