package classeviva

import (
	"errors"
	"fmt"
)

// ErrInvalidCredentials is wrapped by the AuthError returned when the auth
// endpoint answers but refuses the username/password pair.
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthError means the login sequence failed, no partial session is usable.
type AuthError struct {
	Step string
	Err  error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("classeviva: login failed at %s: %s", e.Step, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// TransportError is a network failure or a non-2xx response. Status is 0
// when no response was received.
type TransportError struct {
	Method string
	Url    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("classeviva: %s %s: unexpected status %d", e.Method, e.Url, e.Status)
	}
	return fmt.Sprintf("classeviva: %s %s: %s", e.Method, e.Url, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ExtractionError means the page did not have the expected structure, which
// usually means the remote markup changed.
type ExtractionError struct {
	Page   string
	Reason string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("classeviva: expected structure not found in %s: %s", e.Page, e.Reason)
}

func extractionError(page, format string, args ...any) *ExtractionError {
	return &ExtractionError{Page: page, Reason: fmt.Sprintf(format, args...)}
}

// DataError is an unparseable value in a field that cannot be left empty.
type DataError struct {
	Field string
	Value string
	Err   error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("classeviva: invalid %s %q: %s", e.Field, e.Value, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}
