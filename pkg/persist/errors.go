package persist

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidKey is returned when a key cannot be stored by a backend,
	// for example a key that would escape the data directory.
	ErrInvalidKey = errors.New("persist: invalid key")

	// ErrUnknownBackend is returned by Open for an unsupported backend name.
	ErrUnknownBackend = errors.New("persist: unknown backend")
)

// StatusError reports a non-2xx response from a remote server.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("persist: %s %s: status %d", e.Method, e.URL, e.Code)
	}
	return fmt.Sprintf("persist: %s %s: status %d: %s", e.Method, e.URL, e.Code, e.Body)
}
