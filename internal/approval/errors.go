package approval

import (
	"errors"
	"fmt"
)

// Kind classifies failures returned by the request workflow.
type Kind string

const (
	KindInvalidInput     Kind = "invalid_input"
	KindNotFound         Kind = "not_found"
	KindInvalidOperation Kind = "invalid_operation"
	KindStorage          Kind = "storage_failure"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrNotFound         = errors.New("not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrStorage          = errors.New("storage failure")
)

// Error is the error type returned by Service. Result carries the final
// snapshot for a decision that resolved but could not apply its points.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
	Result  *Result
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrNotFound:
		return e.Kind == KindNotFound
	case ErrInvalidOperation:
		return e.Kind == KindInvalidOperation
	case ErrStorage:
		return e.Kind == KindStorage
	}
	return false
}

// KindOf returns the kind of the first *Error in err's chain. Anything
// else is treated as a storage failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindStorage
}

func invalidInput(op, msg string) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Message: msg}
}

func notFound(op, msg string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func invalidOperation(op, msg string) *Error {
	return &Error{Kind: KindInvalidOperation, Op: op, Message: msg}
}

func storageFailure(op string, err error) *Error {
	// Pass through errors that were already classified inside a transaction.
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindStorage, Op: op, Message: "storage failure", Err: err}
}
