package core

import (
	"fmt"
)

// Error is the canonical error for every operation interviewd exposes.
// Callers branch on Type to distinguish retryable adapter failures from
// terminal session conditions.
type Error struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Param     string    `json:"param,omitempty"`
	Code      string    `json:"code,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Cause     error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest ErrorType = "invalid_request_error"
	ErrAuthentication ErrorType = "authentication_error"
	ErrNotFound       ErrorType = "not_found_error"
	ErrConflict       ErrorType = "conflict_error"
	ErrRateLimit      ErrorType = "rate_limit_error"
	ErrTranscription  ErrorType = "transcription_error"
	ErrAnalysis       ErrorType = "analysis_error"
	ErrSynthesis      ErrorType = "synthesis_error"
	ErrPersistence    ErrorType = "persistence_error"
	ErrProvisioning   ErrorType = "provisioning_error"
	ErrDelivery       ErrorType = "delivery_error"
	ErrSessionClosed  ErrorType = "session_closed_error"
	ErrAPI            ErrorType = "api_error"
)

// NewInvalidRequestError creates an invalid request error.
func NewInvalidRequestError(message string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message}
}

// NewInvalidRequestErrorWithParam creates an invalid request error with a parameter.
func NewInvalidRequestErrorWithParam(message, param string) *Error {
	return &Error{Type: ErrInvalidRequest, Message: message, Param: param}
}

// NewAuthenticationError creates an authentication error.
func NewAuthenticationError(message string) *Error {
	return &Error{Type: ErrAuthentication, Message: message}
}

// NewNotFoundError creates a not found error.
func NewNotFoundError(message string) *Error {
	return &Error{Type: ErrNotFound, Message: message}
}

// NewConflictError reports a second in-flight turn on the same session.
func NewConflictError(message string) *Error {
	return &Error{Type: ErrConflict, Message: message}
}

// NewTranscriptionError wraps a transcription adapter failure.
func NewTranscriptionError(message string, cause error) *Error {
	return &Error{Type: ErrTranscription, Message: message, Cause: cause}
}

// NewAnalysisError wraps a response analyzer failure.
func NewAnalysisError(message string, cause error) *Error {
	return &Error{Type: ErrAnalysis, Message: message, Cause: cause}
}

// NewSynthesisError wraps a speech synthesizer failure.
func NewSynthesisError(message string, cause error) *Error {
	return &Error{Type: ErrSynthesis, Message: message, Cause: cause}
}

// NewPersistenceError wraps a session store failure. A persistence failure
// after a successful adapter call is fatal for the session.
func NewPersistenceError(message string, cause error) *Error {
	return &Error{Type: ErrPersistence, Message: message, Cause: cause}
}

// NewProvisioningError wraps a room allocation failure.
func NewProvisioningError(message string, cause error) *Error {
	return &Error{Type: ErrProvisioning, Message: message, Cause: cause}
}

// NewDeliveryError wraps a report delivery failure.
func NewDeliveryError(message string, cause error) *Error {
	return &Error{Type: ErrDelivery, Message: message, Cause: cause}
}

// NewSessionClosedError reports an operation on a terminal session.
func NewSessionClosedError(message string) *Error {
	return &Error{Type: ErrSessionClosed, Message: message}
}

// NewAPIError creates a generic internal error.
func NewAPIError(message string) *Error {
	return &Error{Type: ErrAPI, Message: message}
}

// IsRetryable reports whether the caller may retry the same input.
// Transcription, analysis, and synthesis failures are transient; the session
// state is unchanged (or, for analysis, safely resumable) on these paths.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrTranscription, ErrAnalysis, ErrSynthesis, ErrRateLimit, ErrDelivery:
		return true
	default:
		return false
	}
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	return e.Cause
}
