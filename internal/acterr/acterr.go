// Package acterr defines the stable wire error codes surfaced by the ACTA
// core as a small tagged error type with predicate helpers.
package acterr

import (
	"errors"
	"fmt"
)

// Code is one of the closed set of wire error codes.
type Code string

const (
	CodeTaskBusy            Code = "task.busy"
	CodeTaskInvalidInput    Code = "task.invalid_input"
	CodeTaskInputTooLong    Code = "task.input_too_long"
	CodeTaskPlanFailed      Code = "task.plan_failed"
	CodeTaskSafetyViolation Code = "task.safety_violation"
	CodePermissionDenied    Code = "permission.denied"
	CodeToolNotFound        Code = "tool.not_found"
	CodeToolFailed          Code = "tool.failed"
	CodeToolException       Code = "tool.exception"
	CodeLLMMisconfigured    Code = "llm.misconfigured"
	CodeLLMCancelled        Code = "llm.cancelled"
	CodeLLMModelNotFound    Code = "llm.model_not_found"
	CodeLLMUnknown          Code = "llm.unknown"

	CodeHTTPTimeout           Code = "http.timeout"
	CodeHTTPConnectionFailed  Code = "http.connection_failed"
	CodeHTTPRateLimited       Code = "http.rate_limited"
	CodeHTTPUnauthorized      Code = "http.unauthorized"
	CodeHTTPForbidden         Code = "http.forbidden"
	CodeHTTPNotFound          Code = "http.not_found"
	CodeHTTPBadRequest        Code = "http.bad_request"
	CodeHTTPServerError       Code = "http.server_error"
	CodeHTTPBadStatus         Code = "http.bad_status"
	CodeHTTPInvalidJSON       Code = "http.invalid_json"

	CodeIPCInvalidPayload Code = "ipc.invalid_payload"

	CodeChatInvalidInput   Code = "chat.invalid_input"
	CodeChatInvalidPayload Code = "chat.invalid_payload"
)

// Error is a tagged error carrying a stable wire code.
type Error struct {
	Code      Code
	Message   string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds a non-retryable Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Retryable builds a retryable Error.
func Retryable(code Code, message string) *Error {
	return &Error{Code: code, Message: message, Retryable: true}
}

// Wrap attaches a wire code to an underlying error.
func Wrap(code Code, cause error) *Error {
	return &Error{Code: code, Message: cause.Error(), Cause: cause}
}

// Is reports whether err is an *Error with the given code.
func Is(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// CodeOf extracts the wire code from err, if any.
func CodeOf(err error) (Code, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return "", false
	}
	return e.Code, true
}
