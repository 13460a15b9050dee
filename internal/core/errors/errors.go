// Package errors defines custom error types for the conncache library
package errors

import "fmt"

// ClientError represents errors raised by the connection cache and its
// protocol specializations
type ClientError struct {
	Code    string
	Message string
	Err     error
}

func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ClientError) Unwrap() error {
	return e.Err
}

// Is matches wrapped copies of the same error by code, so callers can use
// errors.Is against the sentinel values below.
func (e *ClientError) Is(target error) bool {
	t, ok := target.(*ClientError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Common client errors
var (
	ErrIndexOutOfRange = &ClientError{
		Code:    "INDEX_OUT_OF_RANGE",
		Message: "connection pool index is out of range",
	}

	ErrEndpointInit = &ClientError{
		Code:    "ENDPOINT_INIT_FAILED",
		Message: "failed to initialize the shared local endpoint",
	}

	ErrCacheCreation = &ClientError{
		Code:    "CACHE_CREATION_FAILED",
		Message: "failed to create the connection cache",
	}

	ErrCacheClosed = &ClientError{
		Code:    "CACHE_CLOSED",
		Message: "connection cache has been closed",
	}

	ErrSocketAlreadyBound = &ClientError{
		Code:    "SOCKET_ALREADY_BOUND",
		Message: "shared endpoint is already bound to a local socket",
	}

	ErrInvalidPoolCapacity = &ClientError{
		Code:    "INVALID_POOL_CAPACITY",
		Message: "per-destination pool capacity must be at least 1",
	}

	ErrSendFailed = &ClientError{
		Code:    "SEND_FAILED",
		Message: "failed to send data on the connection",
	}

	ErrIdentityGeneration = &ClientError{
		Code:    "IDENTITY_GENERATION_FAILED",
		Message: "failed to generate client identity material",
	}
)

// NewClientError creates a new client error with context
func NewClientError(base *ClientError, err error) error {
	return &ClientError{
		Code:    base.Code,
		Message: base.Message,
		Err:     err,
	}
}
