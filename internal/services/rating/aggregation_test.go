package rating

import (
	"math"
	"testing"

	"github.com/ternarybob/creditcore/internal/models"
)

func block(key models.SectionKey, score float64) *models.SectionBlock {
	b := models.NewSectionBlock(string(key))
	b.Score = score
	b.SectionRating = ScoreToRating(score)
	return b
}

func allSections(score float64) map[models.SectionKey]*models.SectionBlock {
	blocks := make(map[models.SectionKey]*models.SectionBlock)
	for _, k := range WeightedSections {
		blocks[k] = block(k, score)
	}
	return blocks
}

func TestDefaultWeightsSumTo100(t *testing.T) {
	w := DefaultWeights()
	if w.Total() != 100 {
		t.Errorf("DefaultWeights().Total() = %d, want 100", w.Total())
	}
	if err := w.Validate(); err != nil {
		t.Errorf("DefaultWeights().Validate() = %v, want nil", err)
	}
}

func TestWeightsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(Weights)
	}{
		{"sum not 100", func(w Weights) { w[models.SectionLeverage] = 25 }},
		{"missing section", func(w Weights) { delete(w, models.SectionAccountingQuality) }},
		{"unknown section", func(w Weights) { w[models.SectionStress] = 0 }},
		{"negative weight", func(w Weights) {
			w[models.SectionLeverage] = -10
			w[models.SectionLiquidity] = 50
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := DefaultWeights()
			tt.mutate(w)
			err := w.Validate()
			if err == nil {
				t.Fatalf("Validate() = nil, want error")
			}
			if !models.IsConfigurationError(err) {
				t.Errorf("Validate() error = %T, want *ConfigurationError", err)
			}
		})
	}
}

func TestAggregate(t *testing.T) {
	tests := []struct {
		name      string
		blocks    map[models.SectionKey]*models.SectionBlock
		wantScore float64
		wantGrade models.RatingGrade
		wantParts int
	}{
		{
			name:      "all sections equal",
			blocks:    allSections(60),
			wantScore: 60,
			wantGrade: models.GradeA,
			wantParts: 5,
		},
		{
			name:      "no sections is neutral",
			blocks:    map[models.SectionKey]*models.SectionBlock{},
			wantScore: 50,
			wantGrade: models.GradeBBBPlus,
			wantParts: 0,
		},
		{
			name: "missing sections renormalize",
			blocks: map[models.SectionKey]*models.SectionBlock{
				models.SectionLiquidity: block(models.SectionLiquidity, 80),
				models.SectionLeverage:  block(models.SectionLeverage, 40),
			},
			wantScore: 60, // (80*20 + 40*20) / 40
			wantGrade: models.GradeA,
			wantParts: 2,
		},
		{
			name: "leverage weak others adequate",
			blocks: func() map[models.SectionKey]*models.SectionBlock {
				b := allSections(60)
				b[models.SectionLeverage] = block(models.SectionLeverage, 25)
				return b
			}(),
			wantScore: 53,
			wantGrade: models.GradeBBBPlus,
			wantParts: 5,
		},
		{
			name: "governance-only sections are ignored",
			blocks: func() map[models.SectionKey]*models.SectionBlock {
				b := allSections(70)
				b[models.SectionStress] = block(models.SectionStress, 0)
				b[models.SectionCovenants] = block(models.SectionCovenants, 0)
				return b
			}(),
			wantScore: 70,
			wantGrade: models.GradeAAMinus,
			wantParts: 5,
		},
		{
			name: "rounded to one decimal",
			blocks: map[models.SectionKey]*models.SectionBlock{
				models.SectionBusinessRisk:      block(models.SectionBusinessRisk, 61),
				models.SectionAccountingQuality: block(models.SectionAccountingQuality, 50),
			},
			wantScore: 57.9, // (61*25 + 50*10) / 35 = 57.857
			wantGrade: models.GradeAMinus,
			wantParts: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.blocks, DefaultWeights())
			if math.Abs(got.AggregateScore-tt.wantScore) > 1e-9 {
				t.Errorf("AggregateScore = %v, want %v", got.AggregateScore, tt.wantScore)
			}
			if got.BaseGrade != tt.wantGrade {
				t.Errorf("BaseGrade = %v, want %v", got.BaseGrade, tt.wantGrade)
			}
			if got.RatingGrade != got.BaseGrade {
				t.Errorf("RatingGrade = %v before governance, want %v", got.RatingGrade, got.BaseGrade)
			}
			if len(got.SectionBreakdown) != tt.wantParts {
				t.Errorf("len(SectionBreakdown) = %d, want %d", len(got.SectionBreakdown), tt.wantParts)
			}
		})
	}
}

func TestAggregateBreakdown(t *testing.T) {
	got := Aggregate(allSections(72), DefaultWeights())

	entry, ok := got.SectionBreakdown[models.SectionLiquidity]
	if !ok {
		t.Fatalf("liquidity missing from breakdown")
	}
	if entry.Score != 72 || entry.Rating != models.RatingStrong || entry.Weight != 20 {
		t.Errorf("breakdown[liquidity] = %+v, want {72 Strong 20}", entry)
	}
}

func TestRateLeverageCapAndStressNotch(t *testing.T) {
	blocks := allSections(60)
	blocks[models.SectionLeverage] = block(models.SectionLeverage, 25)
	levScore := 25.0

	got := Rate(blocks, DefaultWeights(), GovernanceInputs{LeverageScore: &levScore})
	if got.BaseGrade != models.GradeBBBPlus {
		t.Errorf("BaseGrade = %v, want BBB+", got.BaseGrade)
	}
	if got.RatingGrade != models.GradeBB {
		t.Errorf("RatingGrade = %v, want BB", got.RatingGrade)
	}
	if len(got.GovernanceRules) != 1 {
		t.Errorf("GovernanceRules = %v, want one rule", got.GovernanceRules)
	}

	stressed := 6.5
	got = Rate(blocks, DefaultWeights(), GovernanceInputs{
		LeverageScore: &levScore,
		StressScenarios: []models.StressScenario{
			{Name: "revenue_down_10pct", NetDebtToEbitdaStressed: &stressed},
		},
	})
	if got.RatingGrade != models.GradeBBMinus {
		t.Errorf("RatingGrade = %v, want BB- (BB notched once)", got.RatingGrade)
	}
	if len(got.GovernanceRules) != 2 {
		t.Errorf("GovernanceRules = %v, want two rules", got.GovernanceRules)
	}
}
