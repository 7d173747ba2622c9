// Package errors defines the error codes shared by the hierarchy analysis packages.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown           = "UNKNOWN_ERROR"
	CodeMalformedClass    = "MALFORMED_CLASS"
	CodeClassNameMismatch = "CLASS_NAME_MISMATCH"
	CodeMissingClass      = "MISSING_CLASS"
	CodeUnknownSubtype    = "UNKNOWN_SUBTYPE"
	CodeInvalidSignature  = "INVALID_SIGNATURE"
	CodeDatabaseError     = "DATABASE_ERROR"
	CodeUploadError       = "UPLOAD_ERROR"
	CodeDownloadError     = "DOWNLOAD_ERROR"
	CodeExportError       = "EXPORT_ERROR"
	CodeInvalidInput      = "INVALID_INPUT"
	CodeNotFound          = "NOT_FOUND"
	CodeConfigError       = "CONFIG_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error instances.
var (
	ErrMalformedClass    = New(CodeMalformedClass, "malformed class file")
	ErrClassNameMismatch = New(CodeClassNameMismatch, "class name mismatch")
	ErrMissingClass      = New(CodeMissingClass, "missing class")
	ErrUnknownSubtype    = New(CodeUnknownSubtype, "subtype relation unknown")
	ErrInvalidSignature  = New(CodeInvalidSignature, "invalid signature")
	ErrDatabaseError     = New(CodeDatabaseError, "database error")
	ErrUploadError       = New(CodeUploadError, "upload error")
	ErrDownloadError     = New(CodeDownloadError, "download error")
	ErrExportError       = New(CodeExportError, "export error")
	ErrInvalidInput      = New(CodeInvalidInput, "invalid input")
	ErrNotFound          = New(CodeNotFound, "resource not found")
	ErrConfigError       = New(CodeConfigError, "configuration error")
)

// IsMalformedClass checks if the error reports an undecodable class file.
func IsMalformedClass(err error) bool {
	return errors.Is(err, ErrMalformedClass)
}

// IsClassNameMismatch checks if the error reports a decoded name that differs from the expected one.
func IsClassNameMismatch(err error) bool {
	return errors.Is(err, ErrClassNameMismatch)
}

// IsMissingClass checks if the error reports a class whose bytes could not be obtained.
func IsMissingClass(err error) bool {
	return errors.Is(err, ErrMissingClass)
}

// IsUnknownSubtype checks if the error signals an unsound subtype answer.
func IsUnknownSubtype(err error) bool {
	return errors.Is(err, ErrUnknownSubtype)
}

// IsInvalidSignature checks if the error is a signature parse error.
func IsInvalidSignature(err error) bool {
	return errors.Is(err, ErrInvalidSignature)
}

// IsNotFound checks if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDatabaseError checks if the error is a database error.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// IsUploadError checks if the error is an upload error.
func IsUploadError(err error) bool {
	return errors.Is(err, ErrUploadError)
}

// IsDownloadError checks if the error is a download error.
func IsDownloadError(err error) bool {
	return errors.Is(err, ErrDownloadError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
