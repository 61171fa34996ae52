// Package rating provides pure calculation functions for corporate credit ratings:
// section score mapping, weighted aggregation, and grade governance.
// All functions are stateless and perform no I/O.
package rating

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/creditcore/internal/models"
)

// Section rating thresholds (inclusive lower bounds)
const (
	ThresholdStrong   = 70.0
	ThresholdAdequate = 50.0
)

// Midpoint scores returned by RatingToScore
const (
	MidpointStrong   = 80.0
	MidpointAdequate = 60.0
	MidpointWeak     = 35.0
	MidpointUnknown  = 50.0
)

// NeutralScore is the aggregate score when no weighted section is present
const NeutralScore = 50.0

// WeightedSections lists the sections that carry weight, in aggregation order.
// Stress and covenants are governance-only.
var WeightedSections = []models.SectionKey{
	models.SectionBusinessRisk,
	models.SectionFinancialPerformance,
	models.SectionLiquidity,
	models.SectionLeverage,
	models.SectionAccountingQuality,
}

// Weights maps each weighted section to its integer weight
type Weights map[models.SectionKey]int

// DefaultWeights returns the standard section weights
func DefaultWeights() Weights {
	return Weights{
		models.SectionBusinessRisk:         25,
		models.SectionFinancialPerformance: 25,
		models.SectionLiquidity:            20,
		models.SectionLeverage:             20,
		models.SectionAccountingQuality:    10,
	}
}

// Validate checks that exactly the weighted sections are present, no weight
// is negative, and the weights sum to 100
func (w Weights) Validate() error {
	known := make(map[models.SectionKey]bool, len(WeightedSections))
	for _, k := range WeightedSections {
		known[k] = true
	}

	var unknown []string
	for k := range w {
		if !known[k] {
			unknown = append(unknown, string(k))
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return models.NewConfigurationError("rating.weights", "unknown sections: %s", strings.Join(unknown, ", "))
	}

	sum := 0
	for _, k := range WeightedSections {
		v, ok := w[k]
		if !ok {
			return models.NewConfigurationError("rating.weights", "missing weight for %s", k)
		}
		if v < 0 {
			return models.NewConfigurationError("rating.weights", "negative weight for %s", k)
		}
		sum += v
	}
	if sum != 100 {
		return models.NewConfigurationError("rating.weights", "weights sum to %d, want 100", sum)
	}
	return nil
}

// Total returns the sum of all weights
func (w Weights) Total() int {
	sum := 0
	for _, v := range w {
		sum += v
	}
	return sum
}

// String renders weights in aggregation order
func (w Weights) String() string {
	parts := make([]string, 0, len(WeightedSections))
	for _, k := range WeightedSections {
		parts = append(parts, fmt.Sprintf("%s=%d", k, w[k]))
	}
	return strings.Join(parts, " ")
}

// GovernanceInputs carries everything the governance rules read.
// Nil pointers mean the metric could not be computed; a nil metric never triggers a rule.
type GovernanceInputs struct {
	LeverageScore    *float64
	NetDebtToEbitda  *float64 // Including leases
	EbitdaToInterest *float64
	CovenantFlags    []string
	Notes            models.Notes
	StressScenarios  []models.StressScenario
}
