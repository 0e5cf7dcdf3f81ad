// Package errors provides an API for errors across the application.
package errors

import "errors"

// ErrInvalidArgument denotes a caller error that is detected before any
// I/O has been performed. It is never retried.
var ErrInvalidArgument = errors.New("invalid argument")

type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	return e.Err.Error()
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

type JobQueueFull struct {
	Err error
}

func (e *JobQueueFull) Error() string {
	return e.Err.Error()
}
