// Package errors provides structured error handling for the web data layer.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Remote read failures
	CodeTransport    Code = "TRANSPORT"
	CodeDecode       Code = "DECODE"
	CodePrecondition Code = "PRECONDITION"
	CodeNotFound     Code = "NOT_FOUND"

	// Local input failures
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
)

// Retryable reports whether a failure with this code may succeed on a later
// attempt without any change in remote state.
func (c Code) Retryable() bool {
	switch c {
	case CodeTransport, CodeDecode, CodeUnknown:
		return true
	default:
		return false
	}
}

// HTTPStatus maps domain codes to HTTP status codes for JSON surfaces.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidArgument:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodePrecondition:
		return http.StatusConflict
	case CodeTransport, CodeDecode:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// CodeFromHTTPStatus classifies a non-2xx upstream status.
func CodeFromHTTPStatus(status int) Code {
	switch status {
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict, http.StatusPreconditionFailed:
		return CodePrecondition
	default:
		return CodeTransport
	}
}
