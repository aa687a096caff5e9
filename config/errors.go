package config

import (
	"fmt"
	"strings"
)

// NameFormatError reports a Key declared with a name that does not match
// NamePattern.
type NameFormatError struct {
	Name   string
	Reason string
}

func (e *NameFormatError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("config: invalid key %q: %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("config: invalid key name %q: must match %s", e.Name, NamePattern)
}

// ConversionError is returned when a Value cannot be read as the requested
// type. Type is one of "int" or "string[]".
type ConversionError struct {
	Type string
	Raw  string
	Err  error
}

func (e *ConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: cannot convert %q to %s: %v", e.Raw, e.Type, e.Err)
	}
	return fmt.Sprintf("config: cannot convert %q to %s", e.Raw, e.Type)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Violation describes one failed rule.
type Violation struct {
	Rule   string
	Reason string
	Err    error
}

func (v Violation) String() string {
	if v.Rule == "" {
		return v.Reason
	}
	return v.Rule + ": " + v.Reason
}

// ValidationError is returned when a resolved Value, or any other named
// input, fails one or more rules.
type ValidationError struct {
	Name       string
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return fmt.Sprintf("config: validation failed for %s: %s", e.Name, strings.Join(parts, "; "))
}

// Unwrap exposes the underlying causes, such as a *ConversionError raised
// while a rule read a typed view.
func (e *ValidationError) Unwrap() []error {
	var errs []error
	for _, v := range e.Violations {
		if v.Err != nil {
			errs = append(errs, v.Err)
		}
	}
	return errs
}

// NewValidationError builds a ValidationError with a single violation.
func NewValidationError(name, reason string) *ValidationError {
	return &ValidationError{Name: name, Violations: []Violation{{Reason: reason}}}
}
