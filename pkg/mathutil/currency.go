// Package mathutil provides common mathematical utility functions.
package mathutil

import (
	"math"

	"github.com/iwvelando/yield-planner/pkg/constants"
	"gonum.org/v1/gonum/floats"
)

// Round rounds a value to two decimals, i.e. to represent real currency.
func Round(val float64) float64 {
	return math.Round(val*constants.DecimalPrecision) / constants.DecimalPrecision
}

// WithinTolerance checks if two values are within a specified tolerance
func WithinTolerance(val1, val2, tolerance float64) bool {
	return math.Abs(val1-val2) <= tolerance
}

// Clamp bounds val to [lo, hi]. NaN collapses to lo.
func Clamp(val, lo, hi float64) float64 {
	if math.IsNaN(val) || val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

// Clamp01 bounds a fraction to [0, 1].
func Clamp01(val float64) float64 {
	return Clamp(val, 0, 1)
}

// NonNegative returns val, or 0 if val is negative or not a finite number.
func NonNegative(val float64) float64 {
	if math.IsNaN(val) || math.IsInf(val, 0) || val < 0 {
		return 0
	}
	return val
}

// Divide returns num/den, or 0 when den is zero.
func Divide(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// DivideOrNil returns num/den, or nil when den is zero.
func DivideOrNil(num, den float64) *float64 {
	if den == 0 {
		return nil
	}
	v := num / den
	return &v
}

// ApplyPercentage applies a percentage to a value
func ApplyPercentage(value, percentage float64) float64 {
	return value * (percentage / constants.PercentageMultiplier)
}

// Allocate splits amount across weights proportionally. Zero-weight slots get
// nothing and the last weighted slot absorbs the rounding residue, so the
// result sums to amount exactly. All slots are 0 when the weights sum to 0.
func Allocate(amount float64, weights []float64) []float64 {
	shares := make([]float64, len(weights))
	total := floats.Sum(weights)
	if total <= 0 || amount == 0 {
		return shares
	}

	last := -1
	for i := len(weights) - 1; i >= 0; i-- {
		if weights[i] > 0 {
			last = i
			break
		}
	}

	assigned := 0.0
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if i == last {
			shares[i] = amount - assigned
			break
		}
		shares[i] = amount * w / total
		assigned += shares[i]
	}
	return shares
}
