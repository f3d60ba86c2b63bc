// Package apperr defines the coded error taxonomy surfaced to API callers.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies a caller-visible failure class
type Code string

const (
	// CodeInvalidPayload is malformed ingestion input
	CodeInvalidPayload Code = "INVALID_PAYLOAD"
	// CodeInvalidBBox is a malformed or out-of-range query box
	CodeInvalidBBox Code = "INVALID_BBOX"
	// CodeMissingEvent means the required event identifier is absent
	CodeMissingEvent Code = "MISSING_EVENT"
	// CodeNotFound is a missing entity (e.g. resolving an unknown alert)
	CodeNotFound Code = "NOT_FOUND"
	// CodeUpstreamUnavailable is internal only: predictor failures are
	// absorbed into degraded results and never reach a caller
	CodeUpstreamUnavailable Code = "UPSTREAM_UNAVAILABLE"
)

// Error is a coded application error
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// New creates a coded error
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the code from err, or empty when err is not coded
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// HTTPStatus maps an error to the status the API reports for it
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case CodeInvalidPayload, CodeInvalidBBox, CodeMissingEvent:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
