package errors

import (
	"fmt"
	"net/http"
	"time"
)

//APIError Error with a wire code and an HTTP status.
type APIError interface {
	Code() string
	HTTPStatus() int
	Error() string
}

//ValidationError Request is missing a required field or carries an unusable value.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

//Code Code of the error.
func (e *ValidationError) Code() string {
	return "request_error"
}

//HTTPStatus Status of the error.
func (e *ValidationError) HTTPStatus() int {
	return http.StatusBadRequest
}

//AuthError Shared secret is missing or wrong.
type AuthError struct {
	Msg string
}

func (e *AuthError) Error() string {
	return e.Msg
}

//Code Code of the error.
func (e *AuthError) Code() string {
	return "invalid_api_key"
}

//HTTPStatus Status of the error.
func (e *AuthError) HTTPStatus() int {
	return http.StatusUnauthorized
}

//TimeoutError External call overran its deadline or was cancelled by the caller.
type TimeoutError struct {
	Label   string
	Timeout time.Duration
	Aborted bool
}

func (e *TimeoutError) Error() string {
	if e.Aborted {
		return fmt.Sprintf("%v aborted", e.Label)
	}
	return fmt.Sprintf("%v timed out after %v", e.Label, e.Timeout)
}

//Code Code of the error.
func (e *TimeoutError) Code() string {
	if e.Aborted {
		return "operation_aborted"
	}
	return "operation_timeout"
}

//HTTPStatus Status of the error.
func (e *TimeoutError) HTTPStatus() int {
	return http.StatusGatewayTimeout
}

//DeliveryError Push backend reported a token-level failure. Isolated to the
//affected device, never fails an enclosing fan-out.
type DeliveryError struct {
	Msg    string
	Detail string
}

func (e *DeliveryError) Error() string {
	if e.Detail == "" {
		return e.Msg
	}
	return fmt.Sprintf("%v: %v", e.Msg, e.Detail)
}

//Code Code of the error.
func (e *DeliveryError) Code() string {
	return "push_delivery_failed"
}

//HTTPStatus Status of the error.
func (e *DeliveryError) HTTPStatus() int {
	return http.StatusInternalServerError
}

//UnknownError Unknown error.
type UnknownError struct {
	Msg string
}

func (e *UnknownError) Error() string {
	return e.Msg
}

//Code Code of the error.
func (e *UnknownError) Code() string {
	return "server_error"
}

//HTTPStatus Status of the error.
func (e *UnknownError) HTTPStatus() int {
	return http.StatusInternalServerError
}
