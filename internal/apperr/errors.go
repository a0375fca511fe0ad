// Package apperr defines the error taxonomy shared by the store, the YouTube
// client, the services and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured means the YouTube API key is missing. Callers treat it
	// as a recoverable state, never as a crash.
	ErrNotConfigured = errors.New("youtube api key not configured")

	// ErrNotFound covers both "no such channel upstream" and "no such local row".
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a unique key would be violated, e.g. adding a
	// channel that is already tracked or starting a second sync run.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput marks caller mistakes such as an unknown period.
	ErrInvalidInput = errors.New("invalid input")
)

// TransportError is a non-200 response from the YouTube API.
type TransportError struct {
	Endpoint   string
	StatusCode int
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("youtube %s: upstream status %d", e.Endpoint, e.StatusCode)
}

// StatusCode returns the upstream status carried by err, or 0 when err is not
// a TransportError.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
