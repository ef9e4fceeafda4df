package domain

import (
	"errors"
	"fmt"
)

// Failure taxonomy. Geocode misses and weather failures are deliberately not
// here: they degrade the affected record (absent fields) and never escalate.
var (
	// ErrStoreIO marks a store read or write failure. Fatal to the
	// operation touching that store; on-disk state is left untouched and
	// the next scheduled or triggered attempt retries.
	ErrStoreIO = errors.New("store i/o failure")

	// ErrUnauthorized means the caller is not a registered subscriber.
	ErrUnauthorized = errors.New("not an authorized subscriber")

	// ErrAdminRequired means the caller lacks administrative rights for a
	// privileged operation.
	ErrAdminRequired = errors.New("administrative rights required")
)

// AdapterError wraps a single source adapter's failure. It is absorbed at
// the cycle level: the adapter contributes zero records and the cycle
// continues.
type AdapterError struct {
	Provider string
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Provider, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
