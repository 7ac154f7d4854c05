// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"

	"github.com/rabidhusker/CornerstoneCRM-sub000/pkg/editor"
)

// Business logic errors. Validation errors map to 4xx client responses.
var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrInvalidSortField = errors.New("invalid sort field")
	ErrInvalidSortOrder = errors.New("invalid sort order")
	ErrInvalidStatus    = errors.New("invalid workflow status")

	// ErrWorkflowInvalid indicates the graph failed structural validation.
	ErrWorkflowInvalid = errors.New("workflow graph is invalid")

	// Business logic conflicts (409).
	ErrWorkflowArchived  = errors.New("cannot modify archived workflow")
	ErrInvalidTransition = errors.New("invalid workflow status transition")
)

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// GraphInvalidError carries the validator's error map across the service
// boundary so the API can render per-node errors.
type GraphInvalidError struct {
	Result editor.ValidationResult
}

func (e *GraphInvalidError) Error() string {
	return ErrWorkflowInvalid.Error()
}

func (e *GraphInvalidError) Is(target error) bool {
	return errors.Is(ErrWorkflowInvalid, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidSortField) ||
		errors.Is(err, ErrInvalidSortOrder) ||
		errors.Is(err, ErrInvalidStatus) ||
		errors.Is(err, ErrWorkflowInvalid) ||
		errors.Is(err, editor.ErrNoTrigger)
}

// IsConflictError checks if an error is a business logic conflict that should return HTTP 409.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrWorkflowArchived) ||
		errors.Is(err, ErrInvalidTransition)
}
