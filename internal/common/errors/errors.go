// Package errors provides the standardized error taxonomy shared by the reward
// pipeline, its HTTP transport and its job-worker transport.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Validation errors: the inbound selection is rejected before any network call.
const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeTermsNotAccepted ErrorCode = "TERMS_NOT_ACCEPTED"
)

// Upstream errors: the enrichment or submission call failed.
const (
	ErrCodeUpstreamTimeout     ErrorCode = "UPSTREAM_TIMEOUT"
	ErrCodeUpstreamBadStatus   ErrorCode = "UPSTREAM_BAD_STATUS"
	ErrCodeUpstreamBadBody     ErrorCode = "UPSTREAM_BAD_BODY"
	ErrCodeUpstreamUnavailable ErrorCode = "UPSTREAM_UNAVAILABLE"
)

const (
	ErrCodeRequestCanceled ErrorCode = "REQUEST_CANCELED"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
)

// UpstreamKind is the failure kind of a downstream call.
type UpstreamKind string

const (
	UpstreamTimeout     UpstreamKind = "Timeout"
	UpstreamBadStatus   UpstreamKind = "BadStatus"
	UpstreamBadBody     UpstreamKind = "BadBody"
	UpstreamUnavailable UpstreamKind = "Unavailable"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Service    string    `json:"service,omitempty"`
	StatusCode int       `json:"statusCode,omitempty"`
	Retryable  bool      `json:"retryable"`
	Timestamp  time.Time `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// UpstreamKind reports the downstream failure kind, or "" for non-upstream codes.
func (e *StandardError) UpstreamKind() UpstreamKind {
	switch e.Code {
	case ErrCodeUpstreamTimeout:
		return UpstreamTimeout
	case ErrCodeUpstreamBadStatus:
		return UpstreamBadStatus
	case ErrCodeUpstreamBadBody:
		return UpstreamBadBody
	case ErrCodeUpstreamUnavailable:
		return UpstreamUnavailable
	default:
		return ""
	}
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError creates a non-retryable error for a malformed or incomplete selection.
func NewValidationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   "Reward selection validation failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTermsNotAcceptedError is returned when terms acceptance is enforced and missing.
func NewTermsNotAcceptedError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTermsNotAccepted,
		Message:   "Terms and conditions must be accepted",
		Details:   fmt.Sprintf("userId: %s", userID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewUpstreamTimeoutError creates a retryable timeout error for a downstream service.
func NewUpstreamTimeoutError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamTimeout,
		Message:   fmt.Sprintf("Service '%s' timeout", service),
		Details:   errString(err),
		Service:   service,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUpstreamBadStatusError records a non-success response status.
func NewUpstreamBadStatusError(service string, statusCode int, body string) *StandardError {
	return &StandardError{
		Code:       ErrCodeUpstreamBadStatus,
		Message:    fmt.Sprintf("Service '%s' responded with status %d", service, statusCode),
		Details:    body,
		Service:    service,
		StatusCode: statusCode,
		Retryable:  statusCode >= http.StatusInternalServerError,
		Timestamp:  time.Now().UTC(),
	}
}

// NewUpstreamBadBodyError records a response body that could not be decoded.
func NewUpstreamBadBodyError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamBadBody,
		Message:   fmt.Sprintf("Service '%s' returned a malformed body", service),
		Details:   errString(err),
		Service:   service,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUpstreamUnavailableError covers transport failures other than timeouts.
func NewUpstreamUnavailableError(service string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamUnavailable,
		Message:   fmt.Sprintf("Service '%s' unavailable", service),
		Details:   errString(err),
		Service:   service,
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewRequestCanceledError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestCanceled,
		Message:   "Request canceled by caller",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   errString(err),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ==========================
// 3. Classification
// ==========================

// AsStandardError normalizes any error into a StandardError.
func AsStandardError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return NewRequestCanceledError(err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewUpstreamTimeoutError("pipeline", err)
	default:
		return NewInternalError(err)
	}
}

// IsValidation reports whether err rejected the inbound selection.
func IsValidation(err error) bool {
	stdErr := AsStandardError(err)
	if stdErr == nil {
		return false
	}
	return stdErr.Code == ErrCodeValidationFailed || stdErr.Code == ErrCodeTermsNotAccepted
}

// IsUpstream reports whether err came from a downstream call.
func IsUpstream(err error) bool {
	stdErr := AsStandardError(err)
	return stdErr != nil && stdErr.UpstreamKind() != ""
}

// HasUpstreamKind reports whether err is an upstream error of the given kind.
func HasUpstreamKind(err error, kind UpstreamKind) bool {
	stdErr := AsStandardError(err)
	return stdErr != nil && stdErr.UpstreamKind() == kind
}

// Kind returns a short snake_case label suitable for responses and metrics.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	switch AsStandardError(err).Code {
	case ErrCodeValidationFailed:
		return "validation_failed"
	case ErrCodeTermsNotAccepted:
		return "terms_not_accepted"
	case ErrCodeUpstreamTimeout:
		return "upstream_timeout"
	case ErrCodeUpstreamBadStatus:
		return "upstream_bad_status"
	case ErrCodeUpstreamBadBody:
		return "upstream_bad_body"
	case ErrCodeUpstreamUnavailable:
		return "upstream_unavailable"
	case ErrCodeRequestCanceled:
		return "canceled"
	default:
		return "internal"
	}
}

// HTTPStatus maps an error onto the status returned to the caller.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusAccepted
	}
	switch AsStandardError(err).Code {
	case ErrCodeValidationFailed, ErrCodeTermsNotAccepted:
		return http.StatusBadRequest
	case ErrCodeUpstreamTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeUpstreamBadStatus, ErrCodeUpstreamBadBody, ErrCodeUpstreamUnavailable:
		return http.StatusBadGateway
	case ErrCodeRequestCanceled:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ==========================
// 4. BPMN Error Integration
// ==========================

// BPMNError represents an error thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job error variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ConvertToBPMNError converts any pipeline error to a BPMNError for Camunda.
// BPMN codes are identical to the internal codes.
func ConvertToBPMNError(err error) *BPMNError {
	stdErr := AsStandardError(err)
	vars := map[string]interface{}{
		"errorKind": Kind(stdErr),
		"timestamp": stdErr.Timestamp.Format(time.RFC3339),
	}
	if stdErr.Service != "" {
		vars["service"] = stdErr.Service
	}
	if stdErr.StatusCode != 0 {
		vars["upstreamStatus"] = stdErr.StatusCode
	}
	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		ErrorVariables: vars,
	}
}
