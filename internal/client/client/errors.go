package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable matches every *TransportError.
	ErrUnavailable = errors.New("server unavailable")
	// ErrUnauthorized matches a *StatusError with status 401 or 403.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrCredentialExpired matches a 401 *StatusError from an endpoint whose
	// credential can be refreshed. The pipeline consumes it internally.
	ErrCredentialExpired = errors.New("credential expired")
	// ErrSessionExpired means the refresh itself failed and the session has
	// been cleared. Treat it exactly like a logout.
	ErrSessionExpired = errors.New("session expired")
)

// TransportError is a failure before any HTTP response was obtained.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrUnavailable }

// StatusError is a non-2xx response. Message is the server's message when the
// body carried one, otherwise "HTTP <status>".
type StatusError struct {
	Status  int
	Message string
	Code    string

	credentialExpired bool
}

func (e *StatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s (status %d, code %s)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrCredentialExpired:
		return e.credentialExpired
	}
	return false
}

// Message extracts a human-readable message from err: the remote message of
// a *StatusError, or fallback for anything else.
func Message(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return fallback
}
