// Package stress applies downside scenarios to the latest reporting period and
// scores how well the credit survives them.
package stress

import (
	"math"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/rating"
	"github.com/ternarybob/creditcore/internal/services/sections"
)

// Scenario names, in evaluation order
const (
	ScenarioRevenueDown       = "A_revenue_minus_10pct"
	ScenarioInterestUp        = "B_interest_plus_200bps"
	ScenarioWorkingCapital    = "C_working_capital_shock"
	ScenarioMarginCompression = "D_margin_compression_200bps"
	ScenarioCombined          = "E_combined"
)

// Shock sizes
const (
	RevenueShock        = 0.10 // Revenue falls 10%
	RateShock           = 0.02 // +200bps on gross borrowings
	WorkingCapitalShock = 0.10 // Cash absorbed, as a share of revenue
	MarginShockPct      = 2.0  // EBITDA margin falls 200bps
)

// Breach thresholds and resilience deductions. A scenario counts as a breach
// only past InterestCoverFloor or NetDebtToEbitdaBreach; NetDebtToEbitdaMax and
// negative cash lower the resilience score without counting.
const (
	InterestCoverFloor    = 2.0
	InterestCoverWarning  = 2.5
	NetDebtToEbitdaMax    = 3.0
	NetDebtToEbitdaBreach = 6.0

	resilienceStart     = 70.0
	deductCoverBreach   = 25.0
	deductCoverWarning  = 10.0
	deductLeverage      = 15.0
	deductNegativeCash  = 20.0
	sectionName         = "Stress Testing & Downside Analysis"
	stressedValuePlaces = 2
)

// Scenarios runs every scenario against the latest period.
// Nil when the snapshot has no periods.
func Scenarios(fs *models.FactSet) []models.StressScenario {
	pe := fs.Latest()
	if pe == "" {
		return nil
	}

	rev := fs.ValueOrZero(sections.KeyRevenue, pe)
	op := fs.ValueOrZero(sections.KeyOperatingProfit, pe)
	fc := sections.FinanceCostMagnitude(fs, pe)
	ebitda := common.ValueOr(sections.EBITDA(fs, pe), 0)
	netDebt := common.ValueOr(sections.NetDebtInclLeases(fs, pe), 0)
	cash := fs.ValueOrZero(sections.KeyCash, pe)
	stDebt := fs.ValueOrZero(sections.KeyShortTermBorrowings, pe) + fs.ValueOrZero(sections.KeyCurrentPortionLTD, pe)
	grossDebt := stDebt + fs.ValueOrZero(sections.KeyLongTermBorrowings, pe)

	margin := 0.0
	if rev > 0 {
		margin = ebitda / rev * 100
	}

	// A: revenue -10% at constant margin
	revA := rev * (1 - RevenueShock)
	ebitdaA := ebitda * (1 - RevenueShock)
	if margin != 0 {
		ebitdaA = revA * margin / 100
	}
	a := models.StressScenario{
		Name:            ScenarioRevenueDown,
		Period:          pe,
		RevenueStressed: round(revA),
		EbitdaStressed:  round(ebitdaA),
	}
	if fc > 0 {
		a.InterestCoverStressed = round(op * (1 - RevenueShock) / fc)
	}
	if ebitdaA > 0 {
		a.NetDebtToEbitdaStressed = round(netDebt / ebitdaA)
	}

	// B: +200bps on gross borrowings
	extra := grossDebt * RateShock
	b := models.StressScenario{
		Name:          ScenarioInterestUp,
		Period:        pe,
		ExtraInterest: round(extra),
	}
	if fc+extra > 0 {
		if ic := op / (fc + extra); ic >= 0 {
			b.InterestCoverStressed = round(ic)
		}
	}

	// C: working capital absorbs cash
	wc := rev * WorkingCapitalShock
	cashC := cash - wc
	c := models.StressScenario{
		Name:                ScenarioWorkingCapital,
		Period:              pe,
		WorkingCapitalShock: round(wc),
		CashAfterShock:      round(cashC),
	}
	if cashC > 0 {
		c.STDebtToCashStressed = round(stDebt / cashC)
	}

	// D: margin compression
	marginD := math.Max(0, margin-MarginShockPct)
	ebitdaD := rev * marginD / 100
	d := models.StressScenario{
		Name:           ScenarioMarginCompression,
		Period:         pe,
		EbitdaStressed: round(ebitdaD),
	}
	if ebitdaD > 0 {
		d.NetDebtToEbitdaStressed = round(netDebt / ebitdaD)
	}
	if fc > 0 && margin > 0 {
		d.InterestCoverStressed = round(op * (marginD / margin) / fc)
	}

	// E: A and B together
	e := models.StressScenario{
		Name:           ScenarioCombined,
		Period:         pe,
		EbitdaStressed: round(ebitdaA),
	}
	if fc+extra > 0 {
		e.InterestCoverStressed = round(op * (1 - RevenueShock) / (fc + extra))
	}
	if ebitdaA > 0 {
		e.NetDebtToEbitdaStressed = round(netDebt / ebitdaA)
	}

	return []models.StressScenario{a, b, c, d, e}
}

// IsBreach reports whether stressed ND/EBITDA reaches 6x or stressed interest
// cover falls below 2x
func IsBreach(sc models.StressScenario) bool {
	if v := sc.InterestCoverStressed; v != nil && *v < InterestCoverFloor {
		return true
	}
	if v := sc.NetDebtToEbitdaStressed; v != nil && *v >= NetDebtToEbitdaBreach {
		return true
	}
	return false
}

// CountBreaches counts scenarios with at least one breached condition.
// The count feeds the recommendation rules.
func CountBreaches(scenarios []models.StressScenario) int {
	n := 0
	for _, sc := range scenarios {
		if IsBreach(sc) {
			n++
		}
	}
	return n
}

// Run stresses the latest period and scores resilience
func Run(fs *models.FactSet) models.StressResult {
	scenarios := Scenarios(fs)
	if scenarios == nil {
		scenarios = []models.StressScenario{}
	}
	score, _ := assess(scenarios)
	return models.StressResult{
		Period:          fs.Latest(),
		Scenarios:       scenarios,
		ResilienceScore: score,
		Breaches:        CountBreaches(scenarios),
	}
}

// Section turns a stress result into its (governance-only) section block.
//
// Resilience starts at 70 and per scenario deducts 25 for interest cover
// below 2x (else 10 below 2.5x), 15 for ND/EBITDA above 3x and 20 for
// negative cash after the shock.
func Section(res models.StressResult) *models.SectionBlock {
	b := models.NewSectionBlock(sectionName)
	b.Period = res.Period
	score, flags := assess(res.Scenarios)
	b.RiskFlags = append(b.RiskFlags, flags...)

	b.ByPeriod = make(map[string]models.Metrics, len(res.Scenarios))
	var minCover, maxLeverage *float64
	for _, sc := range res.Scenarios {
		b.ByPeriod[sc.Name] = models.Metrics{
			"interest_cover_stressed":     sc.InterestCoverStressed,
			"net_debt_to_ebitda_stressed": sc.NetDebtToEbitdaStressed,
			"cash_after_shock":            sc.CashAfterShock,
		}
		if v := sc.InterestCoverStressed; v != nil && (minCover == nil || *v < *minCover) {
			minCover = v
		}
		if v := sc.NetDebtToEbitdaStressed; v != nil && (maxLeverage == nil || *v > *maxLeverage) {
			maxLeverage = v
		}
	}
	b.KeyMetrics = models.Metrics{
		"scenario_count":                  common.Float64Ptr(float64(len(res.Scenarios))),
		"scenario_breaches":               common.Float64Ptr(float64(res.Breaches)),
		"min_interest_cover_stressed":     minCover,
		"max_net_debt_to_ebitda_stressed": maxLeverage,
	}

	b.Score = common.Round(score, 1)
	b.SectionRating = rating.ScoreToRating(score)
	return b
}

func assess(scenarios []models.StressScenario) (float64, []string) {
	score := resilienceStart
	flags := []string{}
	for _, sc := range scenarios {
		if v := sc.InterestCoverStressed; v != nil {
			if *v < InterestCoverFloor {
				score -= deductCoverBreach
				flags = append(flags, sc.Name+": Interest cover below 2x")
			} else if *v < InterestCoverWarning {
				score -= deductCoverWarning
				flags = append(flags, sc.Name+": Interest cover below 2.5x")
			}
		}
		if v := sc.NetDebtToEbitdaStressed; v != nil && *v > NetDebtToEbitdaMax {
			score -= deductLeverage
			flags = append(flags, sc.Name+": ND/EBITDA above 3x")
		}
		if v := sc.CashAfterShock; v != nil && *v < 0 {
			score -= deductNegativeCash
			flags = append(flags, sc.Name+": Cash negative after shock")
		}
	}
	return rating.ClampScore(score), flags
}

func round(v float64) *float64 {
	return common.Float64Ptr(common.Round(v, stressedValuePlaces))
}
