package review

import (
	"context"
	"errors"
	"fmt"

	"github.com/abhisek/lingua/internal/item"
	"github.com/abhisek/lingua/internal/srs"
	"github.com/abhisek/lingua/internal/store"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrValidation rejects malformed input before any state changes.
	ErrValidation = errors.New("validation error")

	// ErrUnknownItem means the item id does not resolve. It is also an
	// ErrValidation.
	ErrUnknownItem = errors.New("unknown item")

	// ErrInvalidOutcome means the outcome grade is not one of the four
	// known grades. It is also an ErrValidation.
	ErrInvalidOutcome = errors.New("invalid outcome")

	// ErrConcurrentModification means another writer updated the record
	// since it was read. Re-read and retry; the service never retries.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrStorageUnavailable means the scheduling store failed. Nothing was
	// written.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrTimeout means the call ran past its deadline. Nothing was written.
	ErrTimeout = errors.New("timeout")
)

// Error is the error type returned by Service methods.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Is makes unknown-item and invalid-outcome errors match ErrValidation.
func (e *Error) Is(target error) bool {
	return target == ErrValidation &&
		(e.Kind == ErrUnknownItem || e.Kind == ErrInvalidOutcome)
}

func newError(op string, kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func validationf(op, format string, args ...any) *Error {
	return newError(op, ErrValidation, fmt.Errorf(format, args...))
}

// classify maps a failure from a dependency onto an error kind. ctx is the
// call's context; an expired deadline wins over whatever the driver said.
func classify(ctx context.Context, op string, err error) *Error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}

	switch {
	case errors.Is(err, store.ErrConflict):
		return newError(op, ErrConcurrentModification, err)
	case errors.Is(err, item.ErrNotFound):
		return newError(op, ErrUnknownItem, err)
	case errors.Is(err, srs.ErrInvalidOutcome):
		return newError(op, ErrInvalidOutcome, err)
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(ctx.Err(), context.DeadlineExceeded):
		return newError(op, ErrTimeout, err)
	default:
		return newError(op, ErrStorageUnavailable, err)
	}
}

// KindOf returns the kind of err, or nil if err did not come from the
// service.
func KindOf(err error) error {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return nil
}
