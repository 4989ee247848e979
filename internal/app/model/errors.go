package model

import (
	"fmt"
	"net/http"
)

// OperationError is a failed call to the link service, already translated
// into something a user can read. A nil HTTPStatus means no response reached
// the client.
type OperationError struct {
	HTTPStatus    *int
	UserMessage   string
	CorrelationID string
	Err           error
}

func (e *OperationError) Error() string {
	if e.HTTPStatus == nil {
		return fmt.Sprintf("connectivity failure: %s", e.UserMessage)
	}
	return fmt.Sprintf("%d %s: %s", *e.HTTPStatus, http.StatusText(*e.HTTPStatus), e.UserMessage)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// Connectivity reports whether the request never got a response.
func (e *OperationError) Connectivity() bool {
	return e.HTTPStatus == nil
}

// StatusCode returns the HTTP status or 0 for connectivity failures.
func (e *OperationError) StatusCode() int {
	if e.HTTPStatus == nil {
		return 0
	}
	return *e.HTTPStatus
}
