package analytics

import (
	"fmt"
	"quantdash/internal/domain"
)

// RemoteError is a failure reported by the analytics service itself.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return e.Message
}

func (e *RemoteError) Is(target error) bool {
	return target == domain.ErrRemote
}

// TransportError covers everything between us and a usable response body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == domain.ErrTransportFailure
}
