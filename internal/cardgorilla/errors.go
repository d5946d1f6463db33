package cardgorilla

import (
	"errors"
	"fmt"
)

// errNetwork marks transport-level failures so the retry loop can tell them
// apart from non-retryable call errors.
var errNetwork = errors.New("network failure")

// TransientError wraps a network or server failure. The client retries these
// up to the attempt ceiling; after exhaustion the last one is surfaced.
type TransientError struct {
	Attempts int
	Err      error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("upstream unreachable after %d attempts: %v", e.Attempts, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// MalformedResponseError indicates the top-level payload did not have the
// expected shape. It is fatal to the call and never retried.
type MalformedResponseError struct {
	Endpoint string
	Expected string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: expected %s", e.Endpoint, e.Expected)
}

// ServerError represents a 5xx response from the upstream API.
type ServerError struct {
	StatusCode int
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("card-gorilla server error: HTTP %d", e.StatusCode)
}
