package warehouse

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a warehouse failure
type Kind string

const (
	// KindConnection means the warehouse could not be reached
	KindConnection Kind = "connection"
	// KindQuery means the warehouse rejected the statement
	KindQuery Kind = "query"
	// KindAuth means the warehouse rejected the credentials
	KindAuth Kind = "auth"
	// KindTimeout means the call exceeded its deadline
	KindTimeout Kind = "timeout"
)

// Sentinel errors matching each kind through errors.Is
var (
	ErrConnection = errors.New("warehouse connection failed")
	ErrQuery      = errors.New("warehouse query failed")
	ErrAuth       = errors.New("warehouse authentication failed")
	ErrTimeout    = errors.New("warehouse call timed out")
)

// Error is returned by every warehouse client failure. It is recoverable:
// callers render an error state and let the analyst retry.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// NewError wraps err with kind, taking Message from err
func NewError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Message: err.Error(), Err: err}
}

func (e *Error) Error() string {
	return fmt.Sprintf("warehouse %s error: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	switch e.Kind {
	case KindConnection:
		return target == ErrConnection
	case KindQuery:
		return target == ErrQuery
	case KindAuth:
		return target == ErrAuth
	case KindTimeout:
		return target == ErrTimeout
	default:
		return false
	}
}

// Classify converts err into an *Error, detecting deadline expiry. Errors that
// already are *Error pass through unchanged.
func Classify(fallback Kind, err error) error {
	if err == nil {
		return nil
	}

	var werr *Error
	if errors.As(err, &werr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, err)
	}

	return NewError(fallback, err)
}
