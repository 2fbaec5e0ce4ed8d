package precomputed

import (
	"errors"
	"fmt"
)

// ErrInvalidSkeleton is returned when decoding a malformed skeleton blob.
var ErrInvalidSkeleton = errors.New("precomputed: invalid skeleton encoding")

// PersistError describes a failed dataset operation.
//
// The underlying error can be accessed via errors.Unwrap.
type PersistError struct {
	// Op is the failed step, e.g. "load snapshot" or "upload skeleton".
	Op string
	// Name is the blob involved.
	Name string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("precomputed: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func persistErr(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistError{Op: op, Name: name, Err: err}
}
