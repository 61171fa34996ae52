package sections

import (
	"math"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

var workingCapitalKeys = []string{
	KeyTradeReceivables, KeyInventories, KeyTradePayables, KeyOtherReceivables, KeyOtherPayables,
}

// Trend compares the latest period with the one before it.
// Every field is nil when it cannot be computed.
type Trend struct {
	Latest   string
	Previous string

	RevenueGrowthPct          *float64
	EbitdaGrowthPct           *float64
	PatGrowthPct              *float64
	MarginDeltaBps            *float64
	CfoDeltaPct               *float64
	WorkingCapitalMovement    *float64
	WorkingCapitalMovementPct *float64

	NetDebtMovementExLeases   *float64
	NetDebtMovementInclLeases *float64
	AssetGrowthPct            *float64
	EquityMovement            *float64
	EquityGrowthPct           *float64

	CfoToEbitda              *float64
	EbitdaToPatGapPct        *float64
	CapexToDepreciationRatio *float64
}

// PctChange is 100 * (current - previous) / |previous|, nil when previous is zero
func PctChange(current, previous float64) *float64 {
	if previous == 0 {
		return nil
	}
	v := 100 * (current - previous) / math.Abs(previous)
	return &v
}

// ComputeTrend diagnoses growth, balance sheet movement and earnings quality
// between the latest two periods. With fewer than two periods only Latest is set.
func ComputeTrend(fs *models.FactSet) Trend {
	t := Trend{Latest: fs.Latest(), Previous: fs.Previous()}
	if t.Previous == "" {
		return t
	}
	l, p := t.Latest, t.Previous

	rc, okRC := fs.Value(KeyRevenue, l)
	rp, okRP := fs.Value(KeyRevenue, p)
	if okRC && okRP {
		t.RevenueGrowthPct = PctChange(rc, rp)
	}

	ec, ep := EBITDA(fs, l), EBITDA(fs, p)
	if nonZero(ec) && nonZero(ep) {
		t.EbitdaGrowthPct = PctChange(*ec, *ep)
	}

	if pac, ok := fs.Value(KeyProfitAfterTax, l); ok {
		if pap, ok := fs.Value(KeyProfitAfterTax, p); ok {
			t.PatGrowthPct = PctChange(pac, pap)
		}
	}

	mc, mp := EbitdaMarginPct(fs, l), EbitdaMarginPct(fs, p)
	if nonZero(mc) && nonZero(mp) {
		t.MarginDeltaBps = common.Float64Ptr((*mc - *mp) * 100)
	}

	cfoc, okCC := fs.Value(KeyNetCFO, l)
	cfop, okCP := fs.Value(KeyNetCFO, p)
	if okCC && okCP {
		t.CfoDeltaPct = PctChange(cfoc, cfop)
	}

	wcc, wcp := sumKeys(fs, l, workingCapitalKeys), sumKeys(fs, p, workingCapitalKeys)
	t.WorkingCapitalMovement = common.Float64Ptr(wcc - wcp)
	t.WorkingCapitalMovementPct = PctChange(wcc, wcp)

	t.NetDebtMovementExLeases = common.Float64Ptr(common.ValueOr(NetDebtExLeases(fs, l), 0) - common.ValueOr(NetDebtExLeases(fs, p), 0))
	t.NetDebtMovementInclLeases = common.Float64Ptr(common.ValueOr(NetDebtInclLeases(fs, l), 0) - common.ValueOr(NetDebtInclLeases(fs, p), 0))

	tac, tap := fs.ValueOrZero(KeyTotalAssets, l), fs.ValueOrZero(KeyTotalAssets, p)
	if tac != 0 && tap != 0 {
		t.AssetGrowthPct = PctChange(tac, tap)
	}
	tec, tep := fs.ValueOrZero(KeyTotalEquity, l), fs.ValueOrZero(KeyTotalEquity, p)
	t.EquityMovement = common.Float64Ptr(tec - tep)
	if tec != 0 && tep != 0 {
		t.EquityGrowthPct = PctChange(tec, tep)
	}

	if okCC && nonZero(ec) {
		t.CfoToEbitda = common.Float64Ptr(common.Round(cfoc / *ec, 4))
	}
	if pac, ok := fs.Value(KeyProfitAfterTax, l); ok && nonZero(ec) {
		t.EbitdaToPatGapPct = common.Float64Ptr(common.Round((*ec-pac) / *ec * 100, 2))
	}
	if da, ok := fs.Value(KeyDepreciation, l); ok && da != 0 {
		t.CapexToDepreciationRatio = common.Float64Ptr(common.Round(math.Abs(fs.ValueOrZero(KeyCapex, l))/math.Abs(da), 2))
	}

	return t
}

// Metrics flattens the trend into a named metric map, dropping nil entries
func (t Trend) Metrics() models.Metrics {
	all := map[string]*float64{
		"revenue_growth_pct":            t.RevenueGrowthPct,
		"ebitda_growth_pct":             t.EbitdaGrowthPct,
		"pat_growth_pct":                t.PatGrowthPct,
		"margin_delta_bps":              t.MarginDeltaBps,
		"cfo_delta_pct":                 t.CfoDeltaPct,
		"working_capital_movement":      t.WorkingCapitalMovement,
		"working_capital_movement_pct":  t.WorkingCapitalMovementPct,
		"net_debt_movement_ex_leases":   t.NetDebtMovementExLeases,
		"net_debt_movement_incl_leases": t.NetDebtMovementInclLeases,
		"asset_growth_pct":              t.AssetGrowthPct,
		"equity_movement":               t.EquityMovement,
		"equity_growth_pct":             t.EquityGrowthPct,
		"cfo_to_ebitda":                 t.CfoToEbitda,
		"ebitda_to_pat_gap_pct":         t.EbitdaToPatGapPct,
		"capex_to_depreciation_ratio":   t.CapexToDepreciationRatio,
	}
	out := models.Metrics{}
	for k, v := range all {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

func nonZero(v *float64) bool {
	return v != nil && *v != 0
}

func sumKeys(fs *models.FactSet, period string, keys []string) float64 {
	sum := 0.0
	for _, k := range keys {
		sum += fs.ValueOrZero(k, period)
	}
	return sum
}
