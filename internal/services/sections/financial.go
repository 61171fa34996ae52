// Package sections implements the section engines. Each engine is a pure
// function of a read-only fact snapshot and note snapshot that returns its own
// SectionBlock; no engine reads another engine's output.
package sections

import (
	"fmt"
	"math"

	"github.com/ternarybob/creditcore/internal/models"
)

// Canonical keys read by the engines
const (
	KeyRevenue             = "revenue"
	KeyOperatingProfit     = "operating_profit"
	KeyDepreciation        = "depreciation_amortisation"
	KeyFinanceCosts        = "finance_costs"
	KeyProfitAfterTax      = "profit_after_tax"
	KeyCash                = "cash_and_cash_equivalents"
	KeyTradeReceivables    = "trade_receivables"
	KeyOtherReceivables    = "other_receivables"
	KeyInventories         = "inventories"
	KeyTradePayables       = "trade_payables"
	KeyOtherPayables       = "other_payables"
	KeyShortTermBorrowings = "short_term_borrowings"
	KeyCurrentPortionLTD   = "current_portion_long_term_debt"
	KeyLongTermBorrowings  = "long_term_borrowings"
	KeyLeaseCurrent        = "lease_liabilities_current"
	KeyLeaseNonCurrent     = "lease_liabilities_non_current"
	KeyTotalAssets         = "total_assets"
	KeyTotalEquity         = "total_equity"
	KeyGoodwill            = "goodwill"
	KeyDeferredTaxAssets   = "deferred_tax_assets"
	KeyNetCFO              = "net_cfo"
	KeyCapex               = "capex"
	KeyInterestPaid        = "interest_paid"
)

// EBITDA is operating profit plus depreciation and amortisation.
// Nil when operating profit is not disclosed.
func EBITDA(fs *models.FactSet, period string) *float64 {
	op, ok := fs.Value(KeyOperatingProfit, period)
	if !ok {
		return nil
	}
	v := op + fs.ValueOrZero(KeyDepreciation, period)
	return &v
}

// NetDebtExLeases is borrowings less cash. Nil when none of the inputs is disclosed.
func NetDebtExLeases(fs *models.FactSet, period string) *float64 {
	keys := []string{KeyCash, KeyShortTermBorrowings, KeyCurrentPortionLTD, KeyLongTermBorrowings}
	if !anyDisclosed(fs, period, keys...) {
		return nil
	}
	debt := fs.ValueOrZero(KeyShortTermBorrowings, period) +
		fs.ValueOrZero(KeyCurrentPortionLTD, period) +
		fs.ValueOrZero(KeyLongTermBorrowings, period)
	v := debt - fs.ValueOrZero(KeyCash, period)
	return &v
}

// NetDebtInclLeases adds current and non-current lease liabilities to net debt
func NetDebtInclLeases(fs *models.FactSet, period string) *float64 {
	ex := NetDebtExLeases(fs, period)
	if ex == nil && !anyDisclosed(fs, period, KeyLeaseCurrent, KeyLeaseNonCurrent) {
		return nil
	}
	base := 0.0
	if ex != nil {
		base = *ex
	}
	v := base + TotalLeases(fs, period)
	return &v
}

// TotalLeases is current plus non-current lease liabilities
func TotalLeases(fs *models.FactSet, period string) float64 {
	return fs.ValueOrZero(KeyLeaseCurrent, period) + fs.ValueOrZero(KeyLeaseNonCurrent, period)
}

// FinanceCostMagnitude returns finance costs as a positive expense.
// Finance costs are reported as a negative; a non-negative value is treated as no expense.
func FinanceCostMagnitude(fs *models.FactSet, period string) float64 {
	fc, ok := fs.Value(KeyFinanceCosts, period)
	if ok && fc < 0 {
		return math.Abs(fc)
	}
	return 0
}

// InterestCover is operating profit over finance cost magnitude
func InterestCover(fs *models.FactSet, period string) *float64 {
	op, ok := fs.Value(KeyOperatingProfit, period)
	fc := FinanceCostMagnitude(fs, period)
	if !ok || fc == 0 {
		return nil
	}
	v := op / fc
	return &v
}

// NetDebtToEbitda is net debt including leases over EBITDA
func NetDebtToEbitda(fs *models.FactSet, period string) *float64 {
	nd := NetDebtInclLeases(fs, period)
	e := EBITDA(fs, period)
	if nd == nil || e == nil || *e == 0 {
		return nil
	}
	v := *nd / *e
	return &v
}

// EbitdaMarginPct is EBITDA as a percentage of revenue
func EbitdaMarginPct(fs *models.FactSet, period string) *float64 {
	e := EBITDA(fs, period)
	rev, ok := fs.Value(KeyRevenue, period)
	if e == nil || !ok || rev == 0 {
		return nil
	}
	v := 100 * *e / rev
	return &v
}

// CurrentAssets sums cash, receivables and inventories
func CurrentAssets(fs *models.FactSet, period string) float64 {
	return fs.ValueOrZero(KeyCash, period) +
		fs.ValueOrZero(KeyTradeReceivables, period) +
		fs.ValueOrZero(KeyOtherReceivables, period) +
		fs.ValueOrZero(KeyInventories, period)
}

// CurrentLiabilities sums payables, short-term debt and current leases
func CurrentLiabilities(fs *models.FactSet, period string) float64 {
	return fs.ValueOrZero(KeyTradePayables, period) +
		fs.ValueOrZero(KeyShortTermBorrowings, period) +
		fs.ValueOrZero(KeyCurrentPortionLTD, period) +
		fs.ValueOrZero(KeyLeaseCurrent, period)
}

// CurrentRatio is current assets over current liabilities
func CurrentRatio(fs *models.FactSet, period string) *float64 {
	cl := CurrentLiabilities(fs, period)
	if cl <= 0 {
		return nil
	}
	v := CurrentAssets(fs, period) / cl
	return &v
}

// FreeCashFlow is operating cash flow less capex. Capex is an outflow whichever
// sign it is reported with. Nil when operating cash flow is not disclosed.
func FreeCashFlow(fs *models.FactSet, period string) *float64 {
	cfo, ok := fs.Value(KeyNetCFO, period)
	if !ok {
		return nil
	}
	v := cfo - math.Abs(fs.ValueOrZero(KeyCapex, period))
	return &v
}

// FCFConversion is free cash flow over EBITDA
func FCFConversion(fs *models.FactSet, period string) *float64 {
	fcf := FreeCashFlow(fs, period)
	e := EBITDA(fs, period)
	if fcf == nil || e == nil || *e == 0 {
		return nil
	}
	v := *fcf / *e
	return &v
}

// metricDef describes one per-period metric and how its trace is rendered
type metricDef struct {
	key     string
	formula string
	inputs  []string
	compute func(*models.FactSet, string) *float64
}

var metricDefs = []metricDef{
	{"ebitda", "operating_profit + depreciation_amortisation",
		[]string{KeyOperatingProfit, KeyDepreciation}, EBITDA},
	{"net_debt_ex_leases", "short_term_borrowings + current_portion_long_term_debt + long_term_borrowings - cash_and_cash_equivalents",
		[]string{KeyShortTermBorrowings, KeyCurrentPortionLTD, KeyLongTermBorrowings, KeyCash}, NetDebtExLeases},
	{"net_debt_incl_leases", "net_debt_ex_leases + lease_liabilities_current + lease_liabilities_non_current",
		[]string{KeyLeaseCurrent, KeyLeaseNonCurrent}, NetDebtInclLeases},
	{"interest_cover", "operating_profit / |finance_costs|",
		[]string{KeyOperatingProfit, KeyFinanceCosts}, InterestCover},
	{"net_debt_to_ebitda", "net_debt_incl_leases / ebitda",
		nil, NetDebtToEbitda},
	{"ebitda_margin", "100 * ebitda / revenue",
		[]string{KeyRevenue}, EbitdaMarginPct},
	{"current_ratio", "(cash + receivables + inventories) / (payables + short-term debt + current leases)",
		nil, CurrentRatio},
	{"fcf_conversion", "(net_cfo - |capex|) / ebitda",
		[]string{KeyNetCFO, KeyCapex}, FCFConversion},
}

// ComputeMetrics evaluates every derived metric for every period. Metrics that
// cannot be computed are omitted. Each metric carries its calculation trace.
func ComputeMetrics(fs *models.FactSet) []models.Metric {
	var out []models.Metric
	for _, period := range fs.Periods() {
		for _, def := range metricDefs {
			v := def.compute(fs, period)
			if v == nil {
				continue
			}
			trace := []string{def.key + " = " + def.formula}
			for _, in := range def.inputs {
				if x, ok := fs.Value(in, period); ok {
					trace = append(trace, fmt.Sprintf("%s=%g", in, x))
				}
			}
			out = append(out, models.Metric{
				MetricKey: def.key,
				PeriodEnd: period,
				Value:     *v,
				CalcTrace: trace,
			})
		}
	}
	return out
}

func anyDisclosed(fs *models.FactSet, period string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := fs.Value(k, period); ok {
			return true
		}
	}
	return false
}
