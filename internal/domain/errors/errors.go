package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Error codes shared by every layer
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeDuplicateImport = "DUPLICATE_IMPORT"
	CodePattern         = "PATTERN_ERROR"
	CodeStorage         = "STORAGE_ERROR"
	CodeConflict        = "CONFLICT"
	CodeInternal        = "INTERNAL_ERROR"
)

// AppError is a custom error type for application errors
type AppError struct {
	Code       string
	Message    string
	StatusCode int // Same rule as HTTP status codes
	Err        error
	Details    map[string]interface{}
}

// Error returns a string representation of the error
func (e AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is implements the errors.Is interface
func (e AppError) Is(target error) bool {
	if target, ok := target.(AppError); ok {
		return target.Code == e.Code
	}
	return false
}

// Unwrap returns the underlying error
func (e AppError) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error
func (e AppError) WithDetails(details map[string]interface{}) AppError {
	e.Details = details
	return e
}

// WithDetail adds a single detail to the error
func (e AppError) WithDetail(key string, value interface{}) AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Sentinels usable with errors.Is; only the code is compared.
var (
	ErrValidation      = AppError{Code: CodeValidation}
	ErrNotFound        = AppError{Code: CodeNotFound}
	ErrDuplicateImport = AppError{Code: CodeDuplicateImport}
	ErrPattern         = AppError{Code: CodePattern}
	ErrStorage         = AppError{Code: CodeStorage}
	ErrConflict        = AppError{Code: CodeConflict}
)

// NewValidationError creates a new validation error
func NewValidationError(message string) AppError {
	return AppError{
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

// NewInvalidInputError creates a validation error wrapping the parse failure
func NewInvalidInputError(message string, err error) AppError {
	return AppError{
		Code:       CodeValidation,
		Message:    message,
		StatusCode: http.StatusBadRequest,
		Err:        err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string) AppError {
	return AppError{
		Code:       CodeNotFound,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

// NewDuplicateImportError reports a dedup hit. Callers resolve it as a no-op.
func NewDuplicateImportError(message string) AppError {
	return AppError{
		Code:       CodeDuplicateImport,
		Message:    message,
		StatusCode: http.StatusOK,
	}
}

// NewPatternError creates an error for an unusable rule pattern.
// It is logged by the matcher and never returned to callers.
func NewPatternError(message string, err error) AppError {
	return AppError{
		Code:       CodePattern,
		Message:    message,
		StatusCode: http.StatusUnprocessableEntity,
		Err:        err,
	}
}

// NewStorageError creates a new persistence failure error
func NewStorageError(message string, err error) AppError {
	return AppError{
		Code:       CodeStorage,
		Message:    message,
		StatusCode: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(message string) AppError {
	return AppError{
		Code:       CodeConflict,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) AppError {
	return AppError{
		Code:       CodeInternal,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Err:        err,
	}
}

// CodeOf returns the AppError code carried by err, or an empty string.
func CodeOf(err error) string {
	for err != nil {
		if appErr, ok := err.(AppError); ok {
			return appErr.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}
