package storefront

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidOrderStatus is returned for statuses outside new/in progress/completed.
	ErrInvalidOrderStatus = errors.New("storefront: invalid order status")

	// ErrProductNotFound is returned by catalog lookups for unknown products.
	ErrProductNotFound = errors.New("storefront: product not found")

	// ErrUnauthenticated is returned when an admin operation runs without a session identity.
	ErrUnauthenticated = errors.New("storefront: authentication required")

	// ErrSessionNotFound is returned by the session manager for unknown session ids.
	ErrSessionNotFound = errors.New("storefront: session not found")

	// ErrUnknownSection is returned for panel names outside Sections.
	ErrUnknownSection = errors.New("storefront: unknown section")

	errMissingDataStore = errors.New("storefront: data store not configured")
	errMissingAuth      = errors.New("storefront: auth provider not configured")
	errMissingStorage   = errors.New("storefront: object storage not configured")
	errUnknownResource  = errors.New("storefront: unknown resource")
	errMissingID        = errors.New("storefront: record id is required")
)

// LoadError reports a failed collection read. The previous rows stay visible.
type LoadError struct {
	Resource Resource
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("storefront: load %s: %v", e.Resource, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// UploadError reports a storage failure that aborted a product submit.
type UploadError struct {
	Path string
	Err  error
}

func (e *UploadError) Error() string {
	return e.Err.Error()
}

func (e *UploadError) Unwrap() error { return e.Err }

// ValidationError reports a payload rejected before any write.
type ValidationError struct {
	Form string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("storefront: %s failed validation: %v", e.Form, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IsInputError reports whether err was caused by the caller's input rather
// than by the backend.
func IsInputError(err error) bool {
	var validation *ValidationError
	switch {
	case errors.As(err, &validation):
		return true
	case errors.Is(err, ErrInvalidOrderStatus), errors.Is(err, ErrUnknownSection):
		return true
	case errors.Is(err, errUnknownResource), errors.Is(err, errMissingID):
		return true
	}
	return false
}
