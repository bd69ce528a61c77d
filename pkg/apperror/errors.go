// Package apperror defines the error kinds raised by the retrieval pipeline.
// Callers match kinds with errors.Is against the exported sentinels.
package apperror

import (
	"context"
	"errors"
	"fmt"
)

type Kind string

const (
	KindConfiguration     Kind = "configuration_error"
	KindEmbeddingProvider Kind = "embedding_provider_error"
	KindDimensionMismatch Kind = "dimension_mismatch_error"
	KindNotFound          Kind = "not_found_error"
	KindDeadlineExceeded  Kind = "deadline_exceeded_error"
	KindValidation        Kind = "validation_error"
	KindInternal          Kind = "internal_error"
)

// Error is a typed pipeline error. Err holds the underlying cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Sentinels for errors.Is. They carry no message.
var (
	ErrConfiguration     = &Error{Kind: KindConfiguration}
	ErrEmbeddingProvider = &Error{Kind: KindEmbeddingProvider}
	ErrDimensionMismatch = &Error{Kind: KindDimensionMismatch}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrDeadlineExceeded  = &Error{Kind: KindDeadlineExceeded}
	ErrValidation        = &Error{Kind: KindValidation}
)

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind when target is a bare sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message != "" || t.Err != nil {
		return e == t
	}
	return e.Kind == t.Kind
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

func Configuration(format string, args ...interface{}) *Error {
	return New(KindConfiguration, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func Validation(format string, args ...interface{}) *Error {
	return New(KindValidation, format, args...)
}

// FromContext converts a context error into a deadline error, or wraps err
// with fallback when it is not a timeout.
func FromContext(err error, fallback Kind, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Wrap(KindDeadlineExceeded, err, format, args...)
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return err
	}
	return Wrap(fallback, err, format, args...)
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindDeadlineExceeded
	}
	return KindInternal
}
