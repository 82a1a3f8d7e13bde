package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Error codes used across services and mapped to HTTP statuses at the
// handler boundary.
const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeConflict         = "CONFLICT"
	CodeCodeMismatch     = "CODE_MISMATCH"
	CodePasswordMismatch = "PASSWORD_MISMATCH"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
	}
}

// NewCodeMismatchError is reported when a submitted verification code does
// not match the one stored on the profile (or has expired).
func NewCodeMismatchError() *AppError {
	return &AppError{
		Code:    CodeCodeMismatch,
		Message: "Verification code does not match",
	}
}

// NewPasswordMismatchError is reported when the new password and its
// confirmation differ.
func NewPasswordMismatchError() *AppError {
	return &AppError{
		Code:    CodePasswordMismatch,
		Message: "Passwords do not match",
	}
}

// NewUserNotFoundError is reported (not fatal) when a recovery flow is
// requested for an unknown email address.
func NewUserNotFoundError(email string) *AppError {
	return &AppError{
		Code:    CodeUserNotFound,
		Message: fmt.Sprintf("No account registered for %s", email),
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// RespondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
