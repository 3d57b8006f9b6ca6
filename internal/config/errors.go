package config

import (
	"errors"
	"fmt"
)

// ErrValidationFailed indicates a setting holds an unusable value.
var ErrValidationFailed = errors.New("validation failed")

// ErrFileNotFound indicates an explicitly requested config file is missing.
var ErrFileNotFound = errors.New("config file not found")

// ValidationError describes a validation failure for a setting.
type ValidationError struct {
	// Path is the setting key that failed validation.
	Path string
	// Message describes the validation error.
	Message string
	// Value is the invalid value.
	Value any
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("invalid %s %q: %s", e.Path, fmt.Sprint(e.Value), e.Message)
	}
	return fmt.Sprintf("invalid %s: %s", e.Path, e.Message)
}

// Is reports whether target is ErrValidationFailed.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}
