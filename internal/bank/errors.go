package bank

import (
	"errors"
	"fmt"
)

// LoadError reports a range that could not be fetched or decoded.
// Status carries the transport status when one was received, else 0.
type LoadError struct {
	Range  string
	Status int
	Err    error
}

func (e *LoadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("load range %q: status %d", e.Range, e.Status)
	}
	return fmt.Sprintf("load range %q: %v", e.Range, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func newLoadError(rangeID string, err error) *LoadError {
	le := &LoadError{Range: rangeID, Err: err}
	var se *StatusError
	if errors.As(err, &se) {
		le.Status = se.Status
	}
	return le
}
