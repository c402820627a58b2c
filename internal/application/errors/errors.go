// Package apperrors defines the errors the application layer returns.
// Each type names which input was at fault; callers map them to exit
// statuses and messages.
package apperrors

import (
	"errors"
	"fmt"
)

// ErrChecksFailed is returned by callers that turn a run with failing
// rules into a non-zero exit.
var ErrChecksFailed = errors.New("one or more rules did not pass")

// describe renders "<subject>: <message>[: <cause>]".
func describe(subject, message string, cause error) string {
	if cause == nil {
		return subject + ": " + message
	}
	return fmt.Sprintf("%s: %s: %v", subject, message, cause)
}

// ValidationError means an input (Field is "manifest" or "data") is
// missing or could not be loaded.
type ValidationError struct {
	Cause   error
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return describe("invalid "+e.Field, e.Message, e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// NewValidationError creates a validation error; cause may be nil.
func NewValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Cause: cause}
}

// ExecutionError means a run was aborted. Rules that fail do not produce
// one.
type ExecutionError struct {
	Cause    error
	Manifest string
	Message  string
}

func (e *ExecutionError) Error() string {
	return describe("execution failed for manifest "+e.Manifest, e.Message, e.Cause)
}

func (e *ExecutionError) Unwrap() error { return e.Cause }

// NewExecutionError creates a new execution error.
func NewExecutionError(manifestName, message string, cause error) *ExecutionError {
	return &ExecutionError{Manifest: manifestName, Message: message, Cause: cause}
}

// ConfigurationError means the environment of a run is wrong: the system
// config, the engine settings, or a manifest requiring another version.
type ConfigurationError struct {
	Cause   error
	Aspect  string
	Message string
}

func (e *ConfigurationError) Error() string {
	return describe("configuration error ("+e.Aspect+")", e.Message, e.Cause)
}

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// NewConfigurationError creates a new configuration error.
func NewConfigurationError(aspect, message string, cause error) *ConfigurationError {
	return &ConfigurationError{Aspect: aspect, Message: message, Cause: cause}
}
