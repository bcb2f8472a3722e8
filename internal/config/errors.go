package config

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

var (
	// ErrInvalidArgument is returned when Load is called without a path.
	ErrInvalidArgument = errors.New("config file path is required")
	// ErrNotFound is returned when the config file does not exist.
	ErrNotFound = errors.New("config file not found")
	// ErrParse is returned when the config file is not valid YAML for the schema.
	ErrParse = errors.New("config file is not valid YAML")
	// ErrMissingField is returned for a required key that is absent, null or blank.
	ErrMissingField = errors.New("required field is missing")
	// ErrInvalidField is returned for a key whose value is outside the allowed set.
	ErrInvalidField = errors.New("field has an invalid value")
)

// FieldError ties a validation failure to the dotted path of the offending key.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError collects every field problem found in one config document.
type ValidationError struct {
	errs error
}

func (e *ValidationError) Error() string {
	paths := make([]string, 0, len(e.Fields()))
	for _, f := range e.Fields() {
		paths = append(paths, f.Error())
	}
	return "invalid configuration: " + strings.Join(paths, "; ")
}

func (e *ValidationError) Unwrap() error {
	return e.errs
}

// Fields returns the individual field errors in document order.
func (e *ValidationError) Fields() []*FieldError {
	var out []*FieldError
	for _, err := range multierr.Errors(e.errs) {
		var fe *FieldError
		if errors.As(err, &fe) {
			out = append(out, fe)
		}
	}
	return out
}

// Paths returns the dotted paths of all offending keys.
func (e *ValidationError) Paths() []string {
	fields := e.Fields()
	paths := make([]string, 0, len(fields))
	for _, f := range fields {
		paths = append(paths, f.Path)
	}
	return paths
}

// validator accumulates field errors while walking a document.
type validator struct {
	errs error
}

func (v *validator) missing(path string) {
	v.errs = multierr.Append(v.errs, &FieldError{Path: path, Err: ErrMissingField})
}

func (v *validator) invalid(path string, err error) {
	v.errs = multierr.Append(v.errs, &FieldError{Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidField, err)})
}

func (v *validator) err() error {
	if v.errs == nil {
		return nil
	}
	return &ValidationError{errs: v.errs}
}
