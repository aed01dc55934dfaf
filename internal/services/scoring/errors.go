package scoring

import (
	"errors"
	"fmt"
)

// ErrUpstream matches every failure of the scoring API, whatever its kind.
var ErrUpstream = errors.New("scoring api failure")

// Failure kinds, also used as metric labels.
const (
	KindTransport   = "transport"
	KindStatus      = "status"
	KindApplication = "application"
	KindDecode      = "decode"
)

// Error is a failed call to the scoring API. Message is what the dashboard displays.
type Error struct {
	Endpoint string
	Kind     string
	Status   int
	Message  string
	Err      error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrUpstream
}

func statusError(endpoint string, status int, err error) *Error {
	return &Error{
		Endpoint: endpoint,
		Kind:     KindStatus,
		Status:   status,
		Message:  fmt.Sprintf("API error: %d", status),
		Err:      err,
	}
}

func transportError(endpoint string, err error) *Error {
	return &Error{
		Endpoint: endpoint,
		Kind:     KindTransport,
		Message:  fmt.Sprintf("Network error: %v", err),
		Err:      err,
	}
}

func decodeError(endpoint string, err error) *Error {
	return &Error{
		Endpoint: endpoint,
		Kind:     KindDecode,
		Message:  fmt.Sprintf("Invalid response from %s: %v", endpoint, err),
		Err:      err,
	}
}

// applicationError is an error reported inside a 200 response.
func applicationError(endpoint, message string) *Error {
	return &Error{Endpoint: endpoint, Kind: KindApplication, Message: message}
}
