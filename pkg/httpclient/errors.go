package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoRequest is returned when a BeforeRequest hook returns neither a
	// request nor an error.
	ErrNoRequest = errors.New("before request hook returned no request")
	// ErrNoResponse is returned when an AfterRequest hook returns neither a
	// response nor an error.
	ErrNoResponse = errors.New("after request hook returned no response")
)

// TransportError wraps a failure of the underlying transport.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("HTTP request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// RequestError is returned when the outgoing request cannot be built.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("failed to create request: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// FailedRequest is returned by ExecuteJSON when the response status is not a
// success. The body is never decoded; Response is left for the caller to inspect.
type FailedRequest struct {
	Response *http.Response
}

func (e *FailedRequest) Error() string {
	if e.Response == nil {
		return "request failed"
	}
	return fmt.Sprintf("request failed with status %s", e.Response.Status)
}

// StatusCode returns the status code of the failed response.
func (e *FailedRequest) StatusCode() int {
	if e.Response == nil {
		return 0
	}
	return e.Response.StatusCode
}

// DecodeError is returned when a response body does not have the expected shape.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
