package sections

import (
	"math"
	"strings"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

// Accounting quality deductions
const (
	accountingBase         = 80.0
	deductJudgement        = 10.0
	deductImpairment       = 10.0
	deductGoingConcern     = 20.0
	deductDeferredTax      = 15.0
	deductGoodwill         = 15.0
	maxDeferredTaxToEquity = 0.20
	maxGoodwillToAssets    = 0.30
)

// AccountingQuality applies fixed deductions for disclosure risk signals.
//
// Per note: significant judgement -10, impairment sensitivity -10,
// going concern doubt -20 (stops the note scan).
// Latest period: deferred tax assets > 20% of equity -15,
// goodwill > 30% of assets -15.
func AccountingQuality(in Input) *models.SectionBlock {
	b := models.NewSectionBlock("Accounting & Disclosure Quality")
	b.EvidenceNotes = []string{"Note 1: Significant judgement", "Note 8: Impairment", "Note 14: Deferred tax", "Note 43: Financial instruments"}

	score := accountingBase
	for _, n := range in.Notes {
		text := strings.ToLower(n.Text)
		if strings.Contains(text, "significant judgement") || strings.Contains(text, "significant judgment") {
			score -= deductJudgement
			b.AddFlag("Significant judgement (Note 1): -10")
		}
		if strings.Contains(text, "impairment") &&
			(strings.Contains(text, "sensitivity") || strings.Contains(text, "value in use") || strings.Contains(text, "cgu")) {
			score -= deductImpairment
			b.AddFlag("Impairment sensitivity disclosed: -10")
		}
		if strings.Contains(text, "going concern") &&
			(strings.Contains(text, "doubt") || strings.Contains(text, "uncertainty")) {
			score -= deductGoingConcern
			b.AddFlag("Going concern uncertainty: -20")
			break
		}
	}

	km := models.Metrics{}
	if latest := in.Facts.Latest(); latest != "" {
		b.Period = latest
		fs := in.Facts

		equity := fs.ValueOrZero(KeyTotalEquity, latest)
		if equity == 0 {
			equity = 1
		}
		dtaRatio := fs.ValueOrZero(KeyDeferredTaxAssets, latest) / math.Abs(equity)
		km["dta_to_equity"] = common.Float64Ptr(common.Round(dtaRatio, 4))
		if dtaRatio > maxDeferredTaxToEquity {
			score -= deductDeferredTax
			b.AddFlag("DTA > 20% of equity: -15")
		}

		assets := fs.ValueOrZero(KeyTotalAssets, latest)
		if assets == 0 {
			assets = 1
		}
		if assets > 0 {
			gwRatio := fs.ValueOrZero(KeyGoodwill, latest) / assets
			km["goodwill_to_assets"] = common.Float64Ptr(common.Round(gwRatio, 4))
			if gwRatio > maxGoodwillToAssets {
				score -= deductGoodwill
				b.AddFlag("Goodwill > 30% of assets: -15")
			}
		}
	}

	b = finish(b, score)
	km["deterministic_score"] = common.Float64Ptr(b.Score)
	b.KeyMetrics = km
	return b
}
