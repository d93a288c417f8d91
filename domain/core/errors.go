package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Validation errors (surfaced eagerly at construction time)
	ErrInvalidParameter  = errors.New("invalid parameter")
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// Evaluation errors
	ErrInsufficientSamples = errors.New("insufficient samples")
	ErrNumericalError      = errors.New("non-finite value in numerical computation")

	// Lifecycle errors
	ErrNotFitted = errors.New("test has not been fit to a sample")
)

// Error constructors with context

// NewInvalidParameterError reports a misconfigured estimator, kernel or test.
// component names what was being constructed, param the offending field.
func NewInvalidParameterError(component, param string, value interface{}) error {
	return fmt.Errorf("%w: %s: %s = %v", ErrInvalidParameter, component, param, value)
}

// NewDimensionMismatchError reports inconsistent lengths or vector dimensions.
func NewDimensionMismatchError(component string, want, got int) error {
	return fmt.Errorf("%w: %s: expected dimension %d, got %d", ErrDimensionMismatch, component, want, got)
}

// NewInsufficientSamplesError reports a sample too small for an estimator.
func NewInsufficientSamplesError(component string, min, got int) error {
	return fmt.Errorf("%w: %s requires at least %d samples, got %d", ErrInsufficientSamples, component, min, got)
}

// NewNumericalError reports a non-finite kernel or distance evaluation.
// location identifies the pair or iteration that produced the value.
func NewNumericalError(component, location string, value float64) error {
	return fmt.Errorf("%w: %s at %s produced %v", ErrNumericalError, component, location, value)
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidParameter) ||
		errors.Is(err, ErrDimensionMismatch)
}

func IsEvaluationError(err error) bool {
	return errors.Is(err, ErrInsufficientSamples) ||
		errors.Is(err, ErrNumericalError)
}
