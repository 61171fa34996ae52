package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/creditcore/internal/models"
)

func TestAccountingQuality(t *testing.T) {
	clean := row{KeyTotalEquity: 100, KeyDeferredTaxAssets: 10, KeyTotalAssets: 1000, KeyGoodwill: 100}
	stretched := row{KeyTotalEquity: 100, KeyDeferredTaxAssets: 30, KeyTotalAssets: 1000, KeyGoodwill: 400}

	tests := []struct {
		name       string
		facts      row
		notes      models.Notes
		wantScore  float64
		wantRating models.SectionRating
		wantFlags  []string
	}{
		{
			name:       "clean disclosures",
			facts:      clean,
			wantScore:  80,
			wantRating: models.RatingStrong,
		},
		{
			name:  "every deduction",
			facts: stretched,
			notes: models.Notes{
				note("1", "Significant judgement is applied to revenue recognition."),
				note("8", "Impairment testing uses value in use for each CGU."),
				note("48", "There is a material uncertainty that casts doubt on the going concern assumption."),
			},
			wantScore:  10,
			wantRating: models.RatingWeak,
			wantFlags: []string{
				"Significant judgement (Note 1): -10",
				"Impairment sensitivity disclosed: -10",
				"Going concern uncertainty: -20",
				"DTA > 20% of equity: -15",
				"Goodwill > 30% of assets: -15",
			},
		},
		{
			name:  "going concern stops the note scan",
			facts: clean,
			notes: models.Notes{
				note("1", "Going concern: management has significant doubt."),
				note("2", "Significant judgment in provisions."),
			},
			wantScore:  60,
			wantRating: models.RatingAdequate,
			wantFlags:  []string{"Going concern uncertainty: -20"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := AccountingQuality(Input{Facts: factSet(map[string]row{fy24: tt.facts}), Notes: tt.notes})

			assert.Equal(t, "Accounting & Disclosure Quality", b.SectionName)
			assert.InDelta(t, tt.wantScore, b.Score, 1e-9)
			assert.Equal(t, tt.wantRating, b.SectionRating)
			if tt.wantFlags == nil {
				assert.Empty(t, b.RiskFlags)
			} else {
				assert.Equal(t, tt.wantFlags, b.RiskFlags)
			}

			det, ok := b.KeyMetrics.Get("deterministic_score")
			require.True(t, ok)
			assert.Equal(t, b.Score, det)
		})
	}
}

func TestAccountingQualityRatios(t *testing.T) {
	b := AccountingQuality(Input{Facts: factSet(map[string]row{fy24: {
		KeyTotalEquity: 200, KeyDeferredTaxAssets: 30, KeyTotalAssets: 1000, KeyGoodwill: 250,
	}})})

	dta, ok := b.KeyMetrics.Get("dta_to_equity")
	require.True(t, ok)
	assert.Equal(t, 0.15, dta)

	gw, ok := b.KeyMetrics.Get("goodwill_to_assets")
	require.True(t, ok)
	assert.Equal(t, 0.25, gw)
	assert.Equal(t, 80.0, b.Score)
}
