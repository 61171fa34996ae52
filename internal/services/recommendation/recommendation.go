// Package recommendation maps leverage, liquidity, covenant and stress outcomes
// to a credit action label with the conditions that justify it.
package recommendation

import (
	"github.com/ternarybob/creditcore/internal/models"
)

// Condition strings, appended in evaluation order
const (
	ConditionCovenantBreach  = "Covenant breach: Monitor closely; early engagement with lenders."
	ConditionStressBreaches  = "Multiple stress scenario breaches: Enhanced monitoring required."
	ConditionLeverageSevere  = "Leverage ND/EBITDA \u2265 6x: Debt reduction plan required."
	ConditionLeverageHigh    = "Leverage ND/EBITDA 5\u20136x: Monitor quarterly."
	ConditionInterestCover   = "Interest cover < 2x: Cash flow and interest rate sensitivity review."
	ConditionCurrentRatio    = "Current ratio < 0.8x: Liquidity monitoring."
	ConditionSTDebtToCash    = "ST debt/cash > 5x: Undrawn facilities and refinancing plan."
	ConditionStandardMonitor = "Standard quarterly monitoring."
)

// Rule thresholds
const (
	StressBreachesForCaution = 2
	LeverageSevere           = 6.0
	LeverageHigh             = 5.0
	InterestCoverMin         = 2.0
	CurrentRatioMin          = 0.8
	STDebtToCashMax          = 5.0
)

// Inputs are the metrics the rules read. Nil metrics are skipped.
type Inputs struct {
	NetDebtToEbitda     *float64
	InterestCover       *float64
	CurrentRatio        *float64
	STDebtToCash        *float64
	LeverageBreach      bool
	InterestCoverBreach bool
	StressBreaches      int
}

// Recommend evaluates the rules in fixed order. A covenant breach or two or more
// stress breaches yields Caution; anything else is Maintain.
func Recommend(in Inputs) models.Recommendation {
	var conditions []string
	breach := in.LeverageBreach || in.InterestCoverBreach

	if breach {
		conditions = append(conditions, ConditionCovenantBreach)
	}
	if in.StressBreaches >= StressBreachesForCaution {
		conditions = append(conditions, ConditionStressBreaches)
	}
	if v := in.NetDebtToEbitda; v != nil {
		if *v >= LeverageSevere {
			conditions = append(conditions, ConditionLeverageSevere)
		} else if *v >= LeverageHigh {
			conditions = append(conditions, ConditionLeverageHigh)
		}
	}
	if v := in.InterestCover; v != nil && *v < InterestCoverMin {
		conditions = append(conditions, ConditionInterestCover)
	}
	if v := in.CurrentRatio; v != nil && *v < CurrentRatioMin {
		conditions = append(conditions, ConditionCurrentRatio)
	}
	if v := in.STDebtToCash; v != nil && *v > STDebtToCashMax {
		conditions = append(conditions, ConditionSTDebtToCash)
	}

	if len(conditions) == 0 {
		return models.Recommendation{Label: models.RecommendMaintain, Conditions: []string{ConditionStandardMonitor}}
	}
	label := models.RecommendMaintain
	if breach || in.StressBreaches >= StressBreachesForCaution {
		label = models.RecommendCaution
	}
	return models.Recommendation{Label: label, Conditions: conditions}
}
