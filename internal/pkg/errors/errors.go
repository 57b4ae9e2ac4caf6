package errors

import "errors"

var (
	// ErrNotFound marks "no data yet" lookups: unknown file, empty session.
	ErrNotFound = errors.New("not found")
	// ErrInvalid marks bad caller input rejected before any provider call.
	ErrInvalid = errors.New("invalid")
	// ErrUnconfigured marks a provider or store without credentials.
	ErrUnconfigured = errors.New("not configured")
	// ErrTransient marks timeouts and rate limits; eligible for one retry.
	ErrTransient = errors.New("transient provider error")
	// ErrValidation marks a provider response that failed shape validation.
	ErrValidation = errors.New("response validation failed")
	// ErrStore marks persistence layer failures.
	ErrStore    = errors.New("store error")
	ErrConflict = errors.New("conflict")
	ErrInternal = errors.New("internal")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnconfigured(err error) bool {
	return errors.Is(err, ErrUnconfigured)
}

func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}
