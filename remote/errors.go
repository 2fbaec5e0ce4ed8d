package remote

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when the service has no data for a reconstruction.
var ErrNoData = errors.New("remote: no reconstruction data")

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("remote: HTTP %d: %s", e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == 429
}

// GraphQLError is one entry of the errors list of a GraphQL response.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// GraphQLErrors is returned when the response carries errors.
type GraphQLErrors []GraphQLError

func (e GraphQLErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ge := range e {
		msgs[i] = ge.Message
	}
	return "remote: graphql: " + strings.Join(msgs, "; ")
}
