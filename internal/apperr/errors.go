package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrSourceUnavailable = errors.New("source unavailable")
)

// DefaultRetryAfter is the retry hint attached to unavailable errors that do not set one.
const DefaultRetryAfter = 30 * time.Second

// UnavailableError reports that the catalog source for a locale could not be loaded.
// It matches ErrSourceUnavailable under errors.Is.
type UnavailableError struct {
	Locale     string
	RetryAfter time.Duration
	Err        error
}

// Unavailable wraps err as an UnavailableError with the default retry hint.
func Unavailable(locale string, err error) *UnavailableError {
	return &UnavailableError{Locale: locale, RetryAfter: DefaultRetryAfter, Err: err}
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("catalog %q: %s", e.Locale, ErrSourceUnavailable)
	}
	return fmt.Sprintf("catalog %q: %s: %v", e.Locale, ErrSourceUnavailable, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func (e *UnavailableError) Is(target error) bool { return target == ErrSourceUnavailable }

// RetryAfter returns the retry hint carried by err, or zero when err is not retryable.
func RetryAfter(err error) time.Duration {
	var ue *UnavailableError
	if errors.As(err, &ue) {
		if ue.RetryAfter <= 0 {
			return DefaultRetryAfter
		}
		return ue.RetryAfter
	}
	return 0
}
