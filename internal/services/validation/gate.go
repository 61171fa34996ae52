// Package validation gates a fact snapshot before any scoring runs. Balance
// integrity failures block the pipeline; subtotal mismatches only warn.
package validation

import (
	"fmt"
	"math"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/creditcore/internal/models"
)

// Check names reported in ValidationResult.Checks
const (
	CheckBalanceTie      = "balance_sheet_tie"
	CheckGrossProfit     = "gross_profit_subtotal"
	CheckCashFlow        = "cash_flow_reconciliation"
	CheckTaxonomy        = "taxonomy"
)

// TolerancePolicy is the single source of reconciliation tolerances.
// Both tolerances are absolute, in base currency units: a check passes when
// |reported - computed| <= tolerance.
type TolerancePolicy struct {
	Balance  float64 // Assets vs equity + liabilities
	Subtotal float64 // Gross profit and cash flow subtotals
}

// DefaultTolerancePolicy returns the default absolute tolerances
func DefaultTolerancePolicy() TolerancePolicy {
	return TolerancePolicy{
		Balance:  0.01,
		Subtotal: 0.01,
	}
}

// BalanceCheck is the outcome of an assets = equity + liabilities tie-out
type BalanceCheck struct {
	TotalAssets           float64
	TotalEquity           float64
	TotalLiabilities      float64
	EquityPlusLiabilities float64
	Difference            float64 // Absolute difference
	Tolerance             float64
	IsBalanced            bool
}

// CheckBalanceSheetTie validates assets = equity + liabilities within an absolute tolerance
func CheckBalanceSheetTie(assets, equity, liabilities, tolerance float64) BalanceCheck {
	computed := equity + liabilities
	diff := math.Abs(computed - assets)
	return BalanceCheck{
		TotalAssets:           assets,
		TotalEquity:           equity,
		TotalLiabilities:      liabilities,
		EquityPlusLiabilities: computed,
		Difference:            diff,
		Tolerance:             tolerance,
		IsBalanced:            diff <= tolerance,
	}
}

// Message describes an unbalanced tie-out
func (c BalanceCheck) Message() string {
	return fmt.Sprintf("Assets (%s) != Equity + Liabilities (%s), diff=%s",
		formatAmount(c.TotalAssets), formatAmount(c.EquityPlusLiabilities), formatAmount(c.Difference))
}

// Gate runs the validation checks under one tolerance policy
type Gate struct {
	logger arbor.ILogger
	policy TolerancePolicy
}

// NewGate creates a gate with the given tolerance policy
func NewGate(logger arbor.ILogger, policy TolerancePolicy) *Gate {
	return &Gate{
		logger: logger,
		policy: policy,
	}
}

// Policy returns the gate's tolerance policy
func (g *Gate) Policy() TolerancePolicy {
	return g.policy
}

// Run checks every period in the snapshot. Rejected taxonomy keys are
// reported as warnings; they never reach an engine.
func (g *Gate) Run(facts *models.FactSet, rejectedKeys []string) models.ValidationResult {
	result := models.ValidationResult{
		Status:   models.StatusPass,
		Checks:   []string{CheckBalanceTie, CheckGrossProfit, CheckCashFlow, CheckTaxonomy},
		Failures: []models.ValidationItem{},
		Warnings: []models.ValidationItem{},
	}

	for _, key := range rejectedKeys {
		result.Warnings = append(result.Warnings, models.ValidationItem{
			Check:   CheckTaxonomy,
			Message: fmt.Sprintf("Canonical key %q is not in the taxonomy; facts dropped", key),
		})
	}

	for _, period := range facts.Periods() {
		g.checkBalance(facts, period, &result)
		g.checkGrossProfit(facts, period, &result)
		g.checkCashFlow(facts, period, &result)
	}

	switch {
	case len(result.Failures) > 0:
		result.Status = models.StatusFail
	case len(result.Warnings) > 0:
		result.Status = models.StatusWarn
	}

	if g.logger != nil {
		g.logger.Debug().
			Str("status", string(result.Status)).
			Int("failures", len(result.Failures)).
			Int("warnings", len(result.Warnings)).
			Msg("Validation gate complete")
	}
	return result
}

func (g *Gate) checkBalance(facts *models.FactSet, period string, result *models.ValidationResult) {
	assets, okA := facts.Value("total_assets", period)
	equity, okE := facts.Value("total_equity", period)
	liabilities, okL := facts.Value("total_liabilities", period)

	if !okA || !okE || !okL {
		result.Warnings = append(result.Warnings, models.ValidationItem{
			Check:   CheckBalanceTie,
			Period:  period,
			Message: "Balance sheet totals incomplete; tie-out not performed",
		})
		return
	}

	check := CheckBalanceSheetTie(assets, equity, liabilities, g.policy.Balance)
	if check.IsBalanced {
		return
	}
	result.Failures = append(result.Failures, models.ValidationItem{
		Check:      CheckBalanceTie,
		Period:     period,
		Message:    check.Message(),
		Difference: &check.Difference,
		Tolerance:  &check.Tolerance,
	})
}

// checkGrossProfit compares gross profit with revenue less cost of sales.
// Cost of sales may be presented as a negative; its magnitude is used.
func (g *Gate) checkGrossProfit(facts *models.FactSet, period string, result *models.ValidationResult) {
	revenue, okR := facts.Value("revenue", period)
	cos, okC := facts.Value("cost_of_sales", period)
	gp, okG := facts.Value("gross_profit", period)
	if !okR || !okC || !okG {
		return
	}

	expected := revenue - math.Abs(cos)
	diff := math.Abs(gp - expected)
	if diff <= g.policy.Subtotal {
		return
	}
	tol := g.policy.Subtotal
	result.Warnings = append(result.Warnings, models.ValidationItem{
		Check:  CheckGrossProfit,
		Period: period,
		Message: fmt.Sprintf("Gross profit (%s) != Revenue - Cost of sales (%s), diff=%s",
			formatAmount(gp), formatAmount(expected), formatAmount(diff)),
		Difference: &diff,
		Tolerance:  &tol,
	})
}

// checkCashFlow compares the net change in cash with the sum of the three activity sections
func (g *Gate) checkCashFlow(facts *models.FactSet, period string, result *models.ValidationResult) {
	cfo, ok1 := facts.Value("net_cfo", period)
	cfi, ok2 := facts.Value("net_cfi", period)
	cff, ok3 := facts.Value("net_cff", period)
	net, ok4 := facts.Value("net_change_in_cash", period)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return
	}

	sections := cfo + cfi + cff
	diff := math.Abs(net - sections)
	if diff <= g.policy.Subtotal {
		return
	}
	tol := g.policy.Subtotal
	result.Warnings = append(result.Warnings, models.ValidationItem{
		Check:  CheckCashFlow,
		Period: period,
		Message: fmt.Sprintf("Net change in cash (%s) != CFO + CFI + CFF (%s), diff=%s",
			formatAmount(net), formatAmount(sections), formatAmount(diff)),
		Difference: &diff,
		Tolerance:  &tol,
	})
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%g", v)
}
