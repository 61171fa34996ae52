package sections

import (
	"math"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

// 12-month sources and uses assumptions
const (
	maintenanceCapexShare = 0.8  // Share of last year's capex treated as committed
	workingCapitalDrag    = 0.02 // Working capital build as a share of revenue
)

// LiquidityMetrics computes short-term survival metrics for one period.
// undrawn is the total committed undrawn facilities, nil when unknown.
func LiquidityMetrics(fs *models.FactSet, period string, undrawn *float64) models.Metrics {
	currAssets := CurrentAssets(fs, period)
	currLiab := CurrentLiabilities(fs, period)
	quickAssets := currAssets - fs.ValueOrZero(KeyInventories, period)
	cash := fs.ValueOrZero(KeyCash, period)
	leaseC := fs.ValueOrZero(KeyLeaseCurrent, period)
	stDebt := fs.ValueOrZero(KeyShortTermBorrowings, period) +
		fs.ValueOrZero(KeyCurrentPortionLTD, period) +
		leaseC
	cfo, hasCFO := fs.Value(KeyNetCFO, period)
	undrawnAmt := common.ValueOr(undrawn, 0)

	var currentRatio, quickRatio *float64
	if currLiab > 0 {
		currentRatio = nonNegative(common.Round(currAssets/currLiab, 2))
		quickRatio = nonNegative(common.Round(quickAssets/currLiab, 2))
	}

	var stDebtToCash *float64
	if cash > 0 {
		stDebtToCash = common.Float64Ptr(common.Round(stDebt/cash, 2))
	}

	var runway *float64
	if hasCFO && cfo < 0 && cash > 0 {
		burn := -cfo / 12
		runway = common.Float64Ptr(common.Round(cash/burn, 1))
	}

	sources := cash + undrawnAmt + math.Max(0, cfo)
	uses := stDebt +
		math.Abs(fs.ValueOrZero(KeyCapex, period))*maintenanceCapexShare +
		workingCapitalDrag*fs.ValueOrZero(KeyRevenue, period)

	var coverage, headroom, monthsRunway *float64
	if uses > 0 {
		coverage = common.Float64Ptr(common.Round(sources/uses, 2))
		headroom = common.Float64Ptr(common.Round(100*(sources-uses)/uses, 1))
		if cash > 0 {
			monthsRunway = common.Float64Ptr(common.Round(cash/(uses/12), 1))
		}
	}

	return models.Metrics{
		"current_ratio":              currentRatio,
		"quick_ratio":                quickRatio,
		"st_debt_to_cash":            stDebtToCash,
		"liquidity_runway_months":    runway,
		"undrawn_facilities":         undrawn,
		"lease_adjusted_liquidity":   common.Float64Ptr(common.Round(cash+undrawnAmt-leaseC, 2)),
		"cash":                       common.Float64Ptr(cash),
		"st_debt":                    common.Float64Ptr(stDebt),
		"total_sources_12m":          common.Float64Ptr(common.Round(sources, 2)),
		"total_uses_12m":             common.Float64Ptr(common.Round(uses, 2)),
		"liquidity_surplus_12m":      common.Float64Ptr(common.Round(sources-uses, 2)),
		"liquidity_coverage_ratio":   coverage,
		"liquidity_headroom_pct":     headroom,
		"months_runway_sources_uses": monthsRunway,
	}
}

// Liquidity scores 12-month liquidity coverage and cash conversion.
//
// Adequacy comes from sources/uses coverage, falling back to the current ratio.
// Conversion is 70 for positive operating cash flow, 30 for negative.
// Section score = 0.6 * adequacy + 0.4 * conversion.
func Liquidity(in Input) *models.SectionBlock {
	b := models.NewSectionBlock("Cash Flow & Liquidity")
	b.EvidenceNotes = []string{"Note 38: Cash flows", "Note 21: Borrowings", "Note 20: Lease liabilities", "Note 48: Going concern"}

	latest := in.Facts.Latest()
	if latest == "" {
		return b
	}

	undrawn := in.UndrawnFacilities()
	b.ByPeriod = make(map[string]models.Metrics)
	for _, p := range in.Facts.Periods() {
		b.ByPeriod[p] = LiquidityMetrics(in.Facts, p, undrawn)
	}
	lp := b.ByPeriod[latest]
	b.Period = latest

	cfo := in.Facts.ValuePtr(KeyNetCFO, latest)
	capex := in.Facts.ValuePtr(KeyCapex, latest)

	km := models.Metrics{
		"net_cfo": common.RoundPtr(cfo, 2),
		"capex":   common.RoundPtr(capex, 2),
		"fcf":     common.RoundPtr(FreeCashFlow(in.Facts, latest), 2),
	}
	for _, k := range []string{
		"current_ratio", "quick_ratio", "cash", "st_debt", "st_debt_to_cash",
		"liquidity_runway_months", "undrawn_facilities", "lease_adjusted_liquidity",
		"total_sources_12m", "total_uses_12m", "liquidity_surplus_12m",
		"liquidity_coverage_ratio", "liquidity_headroom_pct",
	} {
		km[k] = lp[k]
	}
	b.KeyMetrics = km

	adequacy := 50.0
	if cov, ok := lp.Get("liquidity_coverage_ratio"); ok {
		switch {
		case cov >= 1.5:
			adequacy = 85
		case cov >= 1.2:
			adequacy = 70
		case cov >= 1.0:
			adequacy = 50
			b.AddFlag("Liquidity coverage 1.0\u20131.2x - Weak")
		default:
			adequacy = 20
			b.AddFlag("Liquidity coverage <1.0x - Critical")
		}
	} else if cr, ok := lp.Get("current_ratio"); ok {
		switch {
		case cr >= 1.5:
			adequacy = 80
		case cr >= 1.2:
			adequacy = 65
		case cr >= 1.0:
			adequacy = 50
		case cr >= 0.8:
			adequacy = 35
			b.AddFlag("Current ratio below 1.0x - Weak liquidity")
		default:
			adequacy = 20
			b.AddFlag("Current ratio below 0.8x - Very weak liquidity")
		}
	}

	cash, _ := lp.Get("cash")
	stDebt, _ := lp.Get("st_debt")
	if cash < 0 {
		adequacy = math.Min(adequacy, 25)
		b.AddFlag("Negative cash position")
	} else if stDebt > 0 && cash > 0 {
		if stc, ok := lp.Get("st_debt_to_cash"); ok && stc > 2 {
			b.AddFlag("ST debt/cash elevated")
		}
	}

	conversion := 50.0
	if cfo != nil && *cfo > 0 {
		conversion = 70
	} else if cfo != nil && *cfo < 0 {
		conversion = 30
		b.AddFlag("Negative CFO")
	}

	if runway, ok := lp.Get("liquidity_runway_months"); ok && runway >= 12 {
		adequacy = math.Min(100, adequacy+10)
	}
	if stDebt <= 0 && cash > 0 {
		adequacy = math.Min(85, adequacy+15)
	}

	return finish(b, adequacy*0.6+conversion*0.4)
}
