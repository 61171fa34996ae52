package rating

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/ternarybob/creditcore/internal/models"
)

func f64(v float64) *float64 {
	return &v
}

func TestGovernRules(t *testing.T) {
	tests := []struct {
		name      string
		base      models.RatingGrade
		in        GovernanceInputs
		want      models.RatingGrade
		wantRules int
	}{
		{
			name:      "no inputs leaves grade",
			base:      models.GradeA,
			want:      models.GradeA,
			wantRules: 0,
		},
		{
			name:      "leverage score below floor caps BB",
			base:      models.GradeA,
			in:        GovernanceInputs{LeverageScore: f64(29.9)},
			want:      models.GradeBB,
			wantRules: 1,
		},
		{
			name:      "leverage score at floor does not cap",
			base:      models.GradeA,
			in:        GovernanceInputs{LeverageScore: f64(30)},
			want:      models.GradeA,
			wantRules: 0,
		},
		{
			name:      "net debt above 5x caps BB",
			base:      models.GradeAA,
			in:        GovernanceInputs{NetDebtToEbitda: f64(5.01)},
			want:      models.GradeBB,
			wantRules: 1,
		},
		{
			name:      "net debt at 5x does not cap",
			base:      models.GradeAA,
			in:        GovernanceInputs{NetDebtToEbitda: f64(5.0)},
			want:      models.GradeAA,
			wantRules: 0,
		},
		{
			name:      "weak interest cover caps B+",
			base:      models.GradeBBB,
			in:        GovernanceInputs{EbitdaToInterest: f64(1.2)},
			want:      models.GradeBPlus,
			wantRules: 1,
		},
		{
			name:      "covenant breach flag caps BB-",
			base:      models.GradeA,
			in:        GovernanceInputs{CovenantFlags: []string{"Covenant breach: ND/EBITDA at or above limit"}},
			want:      models.GradeBBMinus,
			wantRules: 1,
		},
		{
			name:      "covenant match is case-insensitive",
			base:      models.GradeA,
			in:        GovernanceInputs{CovenantFlags: []string{"Leverage AT OR ABOVE threshold"}},
			want:      models.GradeBBMinus,
			wantRules: 1,
		},
		{
			name:      "covenant headroom flag does not cap",
			base:      models.GradeA,
			in:        GovernanceInputs{CovenantFlags: []string{"Covenant headroom below 30%"}},
			want:      models.GradeA,
			wantRules: 0,
		},
		{
			name: "going concern doubt caps B",
			base: models.GradeBBB,
			in: GovernanceInputs{Notes: models.Notes{
				{ID: "48", Text: "There is material uncertainty that may cast significant DOUBT on the Going Concern assumption."},
			}},
			want:      models.GradeB,
			wantRules: 1,
		},
		{
			name: "going concern without doubt does not cap",
			base: models.GradeBBB,
			in: GovernanceInputs{Notes: models.Notes{
				{ID: "1", Text: "The financial statements are prepared on the going concern basis."},
			}},
			want:      models.GradeBBB,
			wantRules: 0,
		},
		{
			name: "going concern beyond scan limit is ignored",
			base: models.GradeBBB,
			in: GovernanceInputs{Notes: models.Notes{
				{ID: "2", Text: strings.Repeat("x", GoingConcernScanLimit) + " going concern doubt"},
			}},
			want:      models.GradeBBB,
			wantRules: 0,
		},
		{
			name:      "cap never lifts a worse grade",
			base:      models.GradeCCC,
			in:        GovernanceInputs{LeverageScore: f64(10), NetDebtToEbitda: f64(9)},
			want:      models.GradeCCC,
			wantRules: 0,
		},
		{
			name: "stress notch one step below caps",
			base: models.GradeA,
			in: GovernanceInputs{
				LeverageScore: f64(20),
				StressScenarios: []models.StressScenario{
					{Name: "combined_downside", NetDebtToEbitdaStressed: f64(6.5)},
				},
			},
			want:      models.GradeBBMinus,
			wantRules: 2,
		},
		{
			name: "stress notch applies once for many scenarios",
			base: models.GradeA,
			in: GovernanceInputs{
				StressScenarios: []models.StressScenario{
					{Name: "a", NetDebtToEbitdaStressed: f64(7)},
					{Name: "b", NetDebtToEbitdaStressed: f64(8)},
				},
			},
			want:      models.GradeAMinus,
			wantRules: 1,
		},
		{
			name: "stress at 6x does not notch",
			base: models.GradeA,
			in: GovernanceInputs{
				StressScenarios: []models.StressScenario{{Name: "a", NetDebtToEbitdaStressed: f64(6.0)}},
			},
			want:      models.GradeA,
			wantRules: 0,
		},
		{
			name: "stress notch clamps at CCC",
			base: models.GradeCCC,
			in: GovernanceInputs{
				StressScenarios: []models.StressScenario{{Name: "a", NetDebtToEbitdaStressed: f64(10)}},
			},
			want:      models.GradeCCC,
			wantRules: 0,
		},
		{
			name: "rules apply in order to the tightest cap",
			base: models.GradeAAA,
			in: GovernanceInputs{
				LeverageScore:    f64(20),
				NetDebtToEbitda:  f64(5.5),
				EbitdaToInterest: f64(1.0),
				CovenantFlags:    []string{"Covenant breach: Interest cover below minimum"},
			},
			want:      models.GradeBPlus,
			wantRules: 2, // BB from leverage, then B+; ND and covenant caps do not move B+
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rules := Govern(tt.base, tt.in)
			if got != tt.want {
				t.Errorf("Govern() grade = %v, want %v (rules %v)", got, tt.want, rules)
			}
			if len(rules) != tt.wantRules {
				t.Errorf("Govern() rules = %v, want %d rules", rules, tt.wantRules)
			}
		})
	}
}

// Governance must never improve a grade, whatever the inputs
func TestGovernNeverImproves(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	maybe := func(lo, hi float64) *float64 {
		if rng.Intn(4) == 0 {
			return nil
		}
		return f64(lo + rng.Float64()*(hi-lo))
	}
	flags := []string{"", "Covenant breach: Interest cover below minimum", "headroom tight"}
	notes := []string{"", "going concern doubt", "going concern basis"}

	for _, base := range models.RatingOrder {
		for i := 0; i < 200; i++ {
			in := GovernanceInputs{
				LeverageScore:    maybe(0, 100),
				NetDebtToEbitda:  maybe(-2, 10),
				EbitdaToInterest: maybe(-1, 10),
				CovenantFlags:    []string{flags[rng.Intn(len(flags))]},
				Notes:            models.Notes{{ID: "1", Text: notes[rng.Intn(len(notes))]}},
				StressScenarios: []models.StressScenario{
					{Name: "s", NetDebtToEbitdaStressed: maybe(0, 12)},
				},
			}
			got, _ := Govern(base, in)
			if IsBetter(got, base) {
				t.Fatalf("Govern(%v, %+v) = %v, better than base", base, in, got)
			}
		}
	}
}

func TestGovernUnknownBaseIsWorst(t *testing.T) {
	got, _ := Govern(models.RatingGrade("XYZ"), GovernanceInputs{})
	if got != models.GradeCCC {
		t.Errorf("Govern(unknown) = %v, want CCC", got)
	}
}
