package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Input shape errors
	ErrInsufficientLength = errors.New("series too short for requested basis")
	ErrLevelOutOfRange    = errors.New("decomposition level exceeds maximum")
	ErrLengthMismatch     = errors.New("paired series length or sampling mismatch")
	ErrNonFiniteValue     = errors.New("non-finite value in input series")

	// Transform errors
	ErrReconstructionLengthMismatch = errors.New("reconstructed length cannot be reconciled")
	ErrUnknownBasis                 = errors.New("unknown wavelet basis")

	// Regression errors
	ErrDegenerateRegression = errors.New("degenerate regression")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid transform configuration")
)

// Error constructors with context
func NewInsufficientLengthError(n, filterLength int) error {
	return fmt.Errorf("%w: %d observations with filter length %d", ErrInsufficientLength, n, filterLength)
}

func NewLevelOutOfRangeError(requested, max int) error {
	return fmt.Errorf("%w: requested %d, maximum %d", ErrLevelOutOfRange, requested, max)
}

func NewLengthMismatchError(lenA, lenB int) error {
	return fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, lenA, lenB)
}

func NewNonFiniteValueError(index int, value float64) error {
	return fmt.Errorf("%w: value %v at index %d", ErrNonFiniteValue, value, index)
}

func NewReconstructionLengthMismatchError(originalLen, reconstructedLen int) error {
	return fmt.Errorf("%w: original %d, reconstructed %d", ErrReconstructionLengthMismatch, originalLen, reconstructedLen)
}

func NewDegenerateRegressionError(reason string) error {
	return fmt.Errorf("%w: %s", ErrDegenerateRegression, reason)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrInsufficientLength) ||
		errors.Is(err, ErrLevelOutOfRange) ||
		errors.Is(err, ErrLengthMismatch) ||
		errors.Is(err, ErrNonFiniteValue)
}

func IsTransformError(err error) bool {
	return errors.Is(err, ErrReconstructionLengthMismatch) ||
		errors.Is(err, ErrUnknownBasis)
}
