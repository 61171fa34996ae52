package sections

import (
	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

// Number of most recent periods carried in the performance by-period view
const performanceHistory = 3

// Performance scores profitability, cash quality and stability.
// Section score = 0.4 * profitability + 0.35 * quality + 0.25 * stability.
func Performance(in Input) *models.SectionBlock {
	b := models.NewSectionBlock("Financial Performance Analysis")
	b.EvidenceNotes = []string{"Note 27: Depreciation", "Note 30: Operating expenses", "Note 33: Finance costs", "Note 34: Tax"}

	fs := in.Facts
	latest := fs.Latest()
	if latest == "" {
		return b
	}
	trend := ComputeTrend(fs)

	rev := fs.ValueOrZero(KeyRevenue, latest)
	op := fs.ValuePtr(KeyOperatingProfit, latest)
	pat := fs.ValuePtr(KeyProfitAfterTax, latest)
	ebitda := common.ValueOr(EBITDA(fs, latest), 0)

	var margin *float64
	if rev > 0 {
		margin = common.Float64Ptr(100 * ebitda / rev)
	}

	b.KeyMetrics = models.Metrics{
		"revenue":            common.Float64Ptr(common.Round(rev, 2)),
		"revenue_growth_pct": common.RoundPtr(trend.RevenueGrowthPct, 1),
		"ebitda_growth_pct":  common.RoundPtr(trend.EbitdaGrowthPct, 1),
		"pat_growth_pct":     common.RoundPtr(trend.PatGrowthPct, 1),
		"ebitda_margin_pct":  common.RoundPtr(margin, 1),
		"operating_profit":   common.RoundPtr(op, 2),
		"profit_after_tax":   common.RoundPtr(pat, 2),
		"cfo_to_ebitda":      common.RoundPtr(trend.CfoToEbitda, 2),
		"fcf_conversion":     common.RoundPtr(FCFConversion(fs, latest), 2),
	}

	periods := fs.Periods()
	b.ByPeriod = make(map[string]models.Metrics)
	for i := len(periods) - 1; i >= 0 && i >= len(periods)-performanceHistory; i-- {
		p := periods[i]
		b.ByPeriod[p] = models.Metrics{
			"revenue": fs.ValuePtr(KeyRevenue, p),
			"ebitda":  EBITDA(fs, p),
		}
	}
	b.Period = latest

	profit := 50.0
	if m := common.ValueOr(margin, 0); m >= 5 {
		profit = 65
	} else if m >= 2 {
		profit = 55
	}
	if op != nil && rev != 0 && *op < 0 {
		profit = 25
		b.AddFlag("Operating loss")
	}

	quality := 50.0
	if c := trend.CfoToEbitda; c != nil {
		if *c >= 0.5 {
			quality = 65
		} else if *c < 0 {
			quality = 35
			b.AddFlag("CFO below EBITDA")
		}
	}

	stability := 50.0
	if g := trend.RevenueGrowthPct; g != nil && *g >= 0 && *g <= 20 {
		stability = 70
	}
	if g := trend.EbitdaGrowthPct; g != nil && *g < -15 {
		stability -= 25
		b.AddFlag("Material EBITDA decline")
	}

	return finish(b, profit*0.4+quality*0.35+stability*0.25)
}
