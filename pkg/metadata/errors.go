package metadata

import "errors"

// StoreError represents a domain error from metadata operations.
//
// These are business logic errors (folder not found, duplicate sibling
// name, cross-org parent) as opposed to infrastructure errors (network
// failure, disk error), which are returned wrapped with %w instead.
//
// The excluded HTTP layer translates Code to status codes; inside this
// module callers branch on Code via IsCode.
type StoreError struct {
	// Code is the error category
	Code ErrorCode

	// Message is a human-readable error description
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// ErrorCode represents the category of a metadata error.
type ErrorCode int

const (
	// ErrNotFound indicates the requested organization/folder/file doesn't exist
	ErrNotFound ErrorCode = iota

	// ErrForbidden indicates the authorization gate denied the operation
	ErrForbidden

	// ErrInvalidArgument indicates invalid parameters were provided
	// Examples: empty folder name, cross-org parent, move introducing a cycle
	ErrInvalidArgument

	// ErrConflict indicates a uniqueness violation
	// Example: duplicate folder name among siblings
	ErrConflict

	// ErrUnavailable indicates the backing store is unreachable.
	// This is a transient error - the caller may retry.
	ErrUnavailable
)

func (c ErrorCode) String() string {
	switch c {
	case ErrNotFound:
		return "not found"
	case ErrForbidden:
		return "forbidden"
	case ErrInvalidArgument:
		return "invalid argument"
	case ErrConflict:
		return "conflict"
	case ErrUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// NewError creates a StoreError with the given code and message.
func NewError(code ErrorCode, message string) *StoreError {
	return &StoreError{Code: code, Message: message}
}

// IsCode reports whether err is (or wraps) a StoreError with the given code.
func IsCode(err error, code ErrorCode) bool {
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return storeErr.Code == code
	}
	return false
}

// IsNotFound reports whether err is a not-found domain error.
func IsNotFound(err error) bool {
	return IsCode(err, ErrNotFound)
}

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool {
	return IsCode(err, ErrConflict)
}
