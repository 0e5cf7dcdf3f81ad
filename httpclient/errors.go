package httpclient

import (
	"errors"
	"fmt"
)

// TransientError is a retryable failure: either a status code from the
// retryable set or a transport level error. It surfaces to the caller only
// once the retry budget is exhausted.
type TransientError struct {
	StatusCode int
	URL        string
	Body       string
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient error for %s: %s", e.URL, e.Err)
	}
	return fmt.Sprintf("transient status %d for %s", e.StatusCode, e.URL)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// PermanentError is a non-retryable status. It is raised on the first
// attempt, with no backoff sleep.
type PermanentError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("status %d for %s", e.StatusCode, e.URL)
}

// MalformedResponseError denotes a 2xx response whose body is not valid JSON.
type MalformedResponseError struct {
	URL string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("non-JSON response from %s", e.URL)
}

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
