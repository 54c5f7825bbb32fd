package errors

import (
	"errors"
	"fmt"
)

// ErrorType defines different categories of errors
type ErrorType string

const (
	// Tree invariants
	ErrorTypeInvalidParent         ErrorType = "INVALID_PARENT"
	ErrorTypeDuplicateID           ErrorType = "DUPLICATE_ID"
	ErrorTypeRootDeletionForbidden ErrorType = "ROOT_DELETION_FORBIDDEN"
	ErrorTypeNotFound              ErrorType = "NOT_FOUND"

	// Wire protocol
	ErrorTypeMalformedMessage ErrorType = "MALFORMED_MESSAGE"

	ErrorTypeValidation ErrorType = "VALIDATION"
	ErrorTypeInternal   ErrorType = "INTERNAL"
)

// AppError is the custom error type for the application
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work
func (e *AppError) Unwrap() error {
	return e.Err
}

// Constructor functions for different error types

// NewInvalidParent reports an insert whose parent is not in the tree
func NewInvalidParent(parentID string) error {
	return &AppError{
		Type:    ErrorTypeInvalidParent,
		Message: fmt.Sprintf("parent %q does not exist", parentID),
	}
}

// NewDuplicateID reports an insert for an id that is already present
func NewDuplicateID(id string) error {
	return &AppError{
		Type:    ErrorTypeDuplicateID,
		Message: fmt.Sprintf("node %q already exists", id),
	}
}

// NewRootDeletionForbidden reports an attempt to delete the root
func NewRootDeletionForbidden(id string) error {
	return &AppError{
		Type:    ErrorTypeRootDeletionForbidden,
		Message: fmt.Sprintf("node %q is the root and cannot be deleted", id),
	}
}

// NewNotFound creates a not found error
func NewNotFound(message string) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewMalformedMessage creates an error for an inbound frame that fails shape checks
func NewMalformedMessage(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeMalformedMessage,
		Message: message,
		Err:     err,
	}
}

// NewValidation creates a validation error
func NewValidation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// NewInternal creates an internal error
func NewInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	// If it's already an AppError, preserve the type
	var appErr *AppError
	if errors.As(err, &appErr) {
		return &AppError{
			Type:    appErr.Type,
			Message: fmt.Sprintf("%s: %s", message, appErr.Message),
			Err:     appErr.Err,
		}
	}

	// Otherwise, create an internal error
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal for foreign errors
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// Type checking functions

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == t
}

// IsInvalidParent checks if an error is an invalid parent error
func IsInvalidParent(err error) bool { return isType(err, ErrorTypeInvalidParent) }

// IsDuplicateID checks if an error is a duplicate id error
func IsDuplicateID(err error) bool { return isType(err, ErrorTypeDuplicateID) }

// IsRootDeletionForbidden checks if an error is a root deletion error
func IsRootDeletionForbidden(err error) bool { return isType(err, ErrorTypeRootDeletionForbidden) }

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsMalformedMessage checks if an error is a malformed message error
func IsMalformedMessage(err error) bool { return isType(err, ErrorTypeMalformedMessage) }

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool { return isType(err, ErrorTypeInternal) }
