package common

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds half away from zero to the given number of decimal places.
// Rounding goes through the shortest decimal representation of v, so 2.675
// rounds to 2.68 rather than the binary-float 2.67.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// RoundPtr rounds a nullable value, keeping nil as nil
func RoundPtr(v *float64, places int32) *float64 {
	if v == nil {
		return nil
	}
	r := Round(*v, places)
	return &r
}

// Float64Ptr returns a pointer to v
func Float64Ptr(v float64) *float64 {
	return &v
}

// ValueOr dereferences v, returning fallback when v is nil
func ValueOr(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}

// SafeDiv divides a by b, returning nil when b is zero
func SafeDiv(a, b float64) *float64 {
	if b == 0 {
		return nil
	}
	r := a / b
	return &r
}
