package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// ErrInvalidArgument covers out-of-range counts, probabilities, alpha
	// levels and unknown enum values.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUndefined is returned when a statistic cannot be computed, e.g. a
	// pooled standard error of zero.
	ErrUndefined = errors.New("statistic undefined")

	ErrNegativeTrials      = fmt.Errorf("%w: negative trial count", ErrInvalidArgument)
	ErrNonPositiveTrials   = fmt.Errorf("%w: trial count must be positive", ErrInvalidArgument)
	ErrSuccessesOutOfRange = fmt.Errorf("%w: success count outside [0, trials]", ErrInvalidArgument)
	ErrProbabilityRange    = fmt.Errorf("%w: probability outside [0, 1]", ErrInvalidArgument)
	ErrAlphaRange          = fmt.Errorf("%w: alpha outside (0, 1)", ErrInvalidArgument)
	ErrUnknownDirection    = fmt.Errorf("%w: unknown test direction", ErrInvalidArgument)
	ErrUnknownMethod       = fmt.Errorf("%w: unknown interval method", ErrInvalidArgument)

	ErrZeroStandardError = fmt.Errorf("%w: pooled standard error is zero", ErrUndefined)
)

// Error constructors with context
func NewInvalidArgumentError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidArgument, field, reason)
}

// NewFieldError attaches the offending field name to one of the sentinel
// errors above while keeping it matchable with errors.Is.
func NewFieldError(field string, err error) error {
	return fmt.Errorf("%s: %w", field, err)
}

// Error checking helpers
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

func IsUndefined(err error) bool {
	return errors.Is(err, ErrUndefined)
}
