package classfile

import (
	"fmt"

	apperrors "github.com/hierarchy-analysis/pkg/errors"
)

// FormatError reports why a class file could not be decoded.
// Kind is apperrors.ErrMalformedClass or apperrors.ErrClassNameMismatch.
type FormatError struct {
	Kind     *apperrors.AppError
	Expected string
	Offset   int
	Reason   string
}

func (e *FormatError) Error() string {
	name := e.Expected
	if name == "" {
		name = "<unknown>"
	}
	return fmt.Sprintf("%s: class %s at offset %d: %s", e.Kind.Message, name, e.Offset, e.Reason)
}

// Unwrap exposes the error code so errors.Is works against the apperrors sentinels.
func (e *FormatError) Unwrap() error {
	return e.Kind
}

func malformed(expected string, off int, format string, args ...interface{}) *FormatError {
	return &FormatError{
		Kind:     apperrors.ErrMalformedClass,
		Expected: expected,
		Offset:   off,
		Reason:   fmt.Sprintf(format, args...),
	}
}
