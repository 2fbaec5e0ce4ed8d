package branch

import (
	"fmt"

	"github.com/hupe1980/nmcp/model"
)

// FetchError reports a failed page request. Malformed points returned by the
// source are reported as a FetchError wrapping *model.MalformedPointError.
type FetchError struct {
	ReconstructionID string
	Branch           model.Branch
	Offset           int
	Err              error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s of %s at offset %d: %v", e.Branch, e.ReconstructionID, e.Offset, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
