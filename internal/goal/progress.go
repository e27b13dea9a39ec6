package goal

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidTarget reports a target that cannot produce a progress value.
	ErrInvalidTarget = errors.New("target must be greater than zero")
	// ErrNegativeValue reports a negative current or target value.
	ErrNegativeValue = errors.New("values must not be negative")
)

// Progress returns current/target as a percentage clamped to [0, 100].
// A non-positive or non-finite target yields 0.
func Progress(current, target float64) float64 {
	if !(target > 0) || math.IsInf(target, 0) {
		return 0
	}
	if math.IsNaN(current) {
		return 0
	}
	p := current / target * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// ValidateInputs checks user-entered values before they are used.
func ValidateInputs(current, target float64) error {
	if math.IsNaN(current) || math.IsNaN(target) {
		return fmt.Errorf("values must be numbers")
	}
	if current < 0 || target < 0 {
		return ErrNegativeValue
	}
	if target == 0 {
		return ErrInvalidTarget
	}
	return nil
}

// Achieved reports whether the achievement badge is due. The comparison is on
// the unrounded value, so 99.6 is not achieved even though it displays as 100%.
func Achieved(progress float64) bool {
	return progress >= 100
}

// Rounded is the integer percentage shown on the ring and in filenames.
func Rounded(progress float64) int {
	return int(math.Round(progress))
}
