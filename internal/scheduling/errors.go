package scheduling

import (
	"context"
	"errors"
	"fmt"

	"interview-scheduler/internal/store"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
)

// Retryable reports whether err is a conflict caused by losing a race with a
// concurrent transaction rather than by the slot's state.
func Retryable(err error) bool {
	return errors.Is(err, store.ErrConflict) || errors.Is(err, context.DeadlineExceeded)
}

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// storeErr translates store sentinels into domain errors. what names the
// record for NotFound messages.
func storeErr(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotFound),
		errors.Is(err, ErrConflict), errors.Is(err, ErrForbidden):
		return err
	case errors.Is(err, store.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case errors.Is(err, store.ErrConflict), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}
