// Package apperrors implements the machine-readable error taxonomy from
// the ingest/query error contract: every failure that reaches the HTTP
// boundary carries one of a small set of codes and a fixed status code.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code returned in error envelopes.
type Code string

const (
	Unauthorized       Code = "UNAUTHORIZED"
	BadRequest         Code = "BAD_REQUEST"
	TooManyRequests    Code = "TOO_MANY_REQUESTS"
	InternalError      Code = "INTERNAL_ERROR"
	ServiceUnavailable Code = "SERVICE_UNAVAILABLE"
	NotFound           Code = "NOT_FOUND"
)

var statusByCode = map[Code]int{
	Unauthorized:       http.StatusUnauthorized,
	BadRequest:         http.StatusBadRequest,
	TooManyRequests:    http.StatusTooManyRequests,
	InternalError:      http.StatusInternalServerError,
	ServiceUnavailable: http.StatusServiceUnavailable,
	NotFound:           http.StatusNotFound,
}

// AppError is the single error type that crosses the HTTP boundary.
// Handlers never leak anything else; internal errors are wrapped via
// Wrap/NewInternal before being returned up the call stack.
type AppError struct {
	Err        error
	Code       Code
	Message    string
	StatusCode int
	// Retryable documents whether spec §7 marks this kind retryable; it is
	// not serialized, but callers (and tests) can inspect it.
	Retryable bool
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func newError(code Code, message string, retryable bool, err error) *AppError {
	return &AppError{
		Err:        err,
		Code:       code,
		Message:    message,
		StatusCode: statusByCode[code],
		Retryable:  retryable,
	}
}

func NewUnauthorized(message string) *AppError       { return newError(Unauthorized, message, false, nil) }
func NewBadRequest(message string) *AppError         { return newError(BadRequest, message, false, nil) }
func NewNotFound(message string) *AppError           { return newError(NotFound, message, false, nil) }
func NewTooManyRequests(message string) *AppError    { return newError(TooManyRequests, message, true, nil) }
func NewServiceUnavailable(message string) *AppError { return newError(ServiceUnavailable, message, true, nil) }

func NewInternal(message string, err error) *AppError {
	return newError(InternalError, message, true, err)
}

func Wrap(err error, message string) *AppError {
	return NewInternal(message, err)
}

// As extracts an *AppError from err, following the error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// StatusCode returns the HTTP status for err, defaulting to 500 for
// anything that isn't an *AppError.
func StatusCode(err error) int {
	if appErr, ok := As(err); ok {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
