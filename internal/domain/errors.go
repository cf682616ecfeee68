package domain

import (
	"errors"
	"fmt"
)

// ErrorKind is the category of a pipeline failure.
type ErrorKind string

const (
	KindEmbeddingFailure  ErrorKind = "embedding_failure"
	KindDimensionMismatch ErrorKind = "dimension_mismatch"
	KindEmptyIndex        ErrorKind = "empty_index"
	KindCompletionFailure ErrorKind = "completion_failure"
	KindInvalidArgument   ErrorKind = "invalid_argument"
)

// Error is a pipeline failure with a kind, a message and an optional cause.
// Two errors match under errors.Is when their kinds are equal.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
	Details map[string]any
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithDetail attaches a key/value pair to the error and returns it.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// Sentinels for errors.Is.
var (
	ErrEmbeddingFailure  = &Error{Kind: KindEmbeddingFailure, Message: "embedding failed"}
	ErrDimensionMismatch = &Error{Kind: KindDimensionMismatch, Message: "vector dimension mismatch"}
	ErrEmptyIndex        = &Error{Kind: KindEmptyIndex, Message: "index is empty"}
	ErrCompletionFailure = &Error{Kind: KindCompletionFailure, Message: "completion failed"}
	ErrInvalidArgument   = &Error{Kind: KindInvalidArgument, Message: "invalid argument"}
)

func NewEmbeddingFailure(message string, err error) *Error {
	return &Error{Kind: KindEmbeddingFailure, Message: message, Err: err}
}

func NewDimensionMismatch(want, got int) *Error {
	return (&Error{
		Kind:    KindDimensionMismatch,
		Message: fmt.Sprintf("expected dimension %d, got %d", want, got),
	}).WithDetail("expected", want).WithDetail("actual", got)
}

func NewEmptyIndex(message string) *Error {
	return &Error{Kind: KindEmptyIndex, Message: message}
}

func NewCompletionFailure(message string, err error) *Error {
	return &Error{Kind: KindCompletionFailure, Message: message, Err: err}
}

func NewInvalidArgument(message string) *Error {
	return &Error{Kind: KindInvalidArgument, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsEmbeddingFailure(err error) bool  { return errors.Is(err, ErrEmbeddingFailure) }
func IsDimensionMismatch(err error) bool { return errors.Is(err, ErrDimensionMismatch) }
func IsEmptyIndex(err error) bool        { return errors.Is(err, ErrEmptyIndex) }
func IsCompletionFailure(err error) bool { return errors.Is(err, ErrCompletionFailure) }
func IsInvalidArgument(err error) bool   { return errors.Is(err, ErrInvalidArgument) }
