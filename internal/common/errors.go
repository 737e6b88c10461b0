package common

import (
	"errors"
	"net/http"
)

// Canonical error codes used across handler responses.
const (
	CodeBadRequest = "BAD_REQUEST"
	CodeValidation = "VALIDATION"
	CodeNotFound   = "NOT_FOUND"
	CodeConflict   = "CONFLICT"
	CodeReplay     = "IDEMPOTENT_REPLAY"
	CodeInternal   = "INTERNAL"
)

// AppError carries an API error code and HTTP status alongside the cause, so
// middleware can render failures without knowing which layer produced them.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    any
	Err        error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError builds an AppError around an optional cause.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// AsAppError unwraps err to an AppError when one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var target *AppError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// Render writes the error in the canonical response shape. An error without
// an AppError in its chain renders as a 500 INTERNAL.
func Render(w http.ResponseWriter, err error) {
	if err == nil {
		return
	}
	if ae, ok := AsAppError(err); ok {
		status := ae.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		JSONError(w, status, ae.Code, ae.Message, ae.Details)
		return
	}
	JSONError(w, http.StatusInternalServerError, CodeInternal, "internal error", nil)
}
