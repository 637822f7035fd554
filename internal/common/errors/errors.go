// Package errors provides the structured error type shared by the registry,
// the catalog loader and the HTTP layer.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeActivityNotFound ErrorCode = "ACTIVITY_NOT_FOUND"
	ErrCodeAlreadySignedUp  ErrorCode = "ALREADY_SIGNED_UP"
	ErrCodeNotSignedUp      ErrorCode = "NOT_SIGNED_UP"

	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeCatalogInvalid   ErrorCode = "CATALOG_INVALID"

	ErrCodeNotificationPublishFailed ErrorCode = "NOTIFICATION_PUBLISH_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Is matches any StandardError carrying the same code, so package-level
// sentinels work with errors.Is regardless of details.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns a copy of e carrying an extra metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	out := *e
	out.Metadata = make(map[string]interface{}, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		out.Metadata[k] = v
	}
	out.Metadata[key] = value
	return &out
}

// ==========================
// 2. Sentinels
// ==========================

var (
	ErrActivityNotFound = &StandardError{Code: ErrCodeActivityNotFound, Message: "Activity not found"}
	ErrAlreadySignedUp  = &StandardError{Code: ErrCodeAlreadySignedUp, Message: "Student is already signed up for this activity"}
	ErrNotSignedUp      = &StandardError{Code: ErrCodeNotSignedUp, Message: "Student is not signed up for this activity"}
)

// ==========================
// 3. Error Constructors
// ==========================

// NewActivityNotFoundError creates a non-retryable lookup error.
func NewActivityNotFoundError(activityName string) *StandardError {
	return &StandardError{
		Code:      ErrCodeActivityNotFound,
		Message:   ErrActivityNotFound.Message,
		Details:   fmt.Sprintf("activity: %s", activityName),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activityName},
		Timestamp: time.Now().UTC(),
	}
}

// NewAlreadySignedUpError creates a conflict error for a duplicate signup.
func NewAlreadySignedUpError(activityName, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeAlreadySignedUp,
		Message:   ErrAlreadySignedUp.Message,
		Details:   fmt.Sprintf("activity: %s, email: %s", activityName, email),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activityName, "email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotSignedUpError creates a conflict error for unregistering an absent participant.
func NewNotSignedUpError(activityName, email string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotSignedUp,
		Message:   ErrNotSignedUp.Message,
		Details:   fmt.Sprintf("activity: %s, email: %s", activityName, email),
		Retryable: false,
		Metadata:  map[string]interface{}{"activity": activityName, "email": email},
		Timestamp: time.Now().UTC(),
	}
}

// NewValidationError creates a request validation error.
func NewValidationError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCatalogInvalidError reports a seed catalog that failed schema or rule checks.
func NewCatalogInvalidError(path string, problems []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeCatalogInvalid,
		Message:   "Activity catalog is invalid",
		Details:   strings.Join(problems, "; "),
		Retryable: false,
		Metadata:  map[string]interface{}{"path": path, "problems": problems},
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationPublishFailedError wraps a notifier failure. Retryable.
func NewNotificationPublishFailedError(channel string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationPublishFailed,
		Message:   "Failed to publish activity notification",
		Details:   fmt.Sprintf("channel: %s, error: %v", channel, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 4. Mapping
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HTTPStatus maps an error code to the status the API answers with.
// Duplicate signup and missing registration are reported as 400.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeActivityNotFound:
		return http.StatusNotFound
	case ErrCodeAlreadySignedUp, ErrCodeNotSignedUp:
		return http.StatusBadRequest
	case ErrCodeValidationFailed:
		return http.StatusUnprocessableEntity
	case ErrCodeNotificationPublishFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryableErrorCode reports whether callers may retry an operation that failed with code.
func IsRetryableErrorCode(code ErrorCode) bool {
	return code == ErrCodeNotificationPublishFailed
}

// GetErrorCategory returns the category of the error code, used as a metric label.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeActivityNotFound:
		return "NOT_FOUND"
	case ErrCodeAlreadySignedUp, ErrCodeNotSignedUp:
		return "CONFLICT"
	case ErrCodeValidationFailed, ErrCodeCatalogInvalid:
		return "VALIDATION"
	case ErrCodeNotificationPublishFailed:
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}
