package rating

import (
	"fmt"
	"strings"

	"github.com/ternarybob/creditcore/internal/models"
)

// Governance thresholds
const (
	LeverageScoreFloor       = 30.0
	MaxNetDebtToEbitda       = 5.0
	MinEbitdaToInterest      = 1.5
	StressNetDebtToEbitdaMax = 6.0

	// Note text scanned per note for going-concern language
	GoingConcernScanLimit = 8000
)

// Governance caps
const (
	CapLeverageScore = models.GradeBB
	CapNetDebt       = models.GradeBB
	CapInterestCover = models.GradeBPlus
	CapCovenant      = models.GradeBBMinus
	CapGoingConcern  = models.GradeB
)

// Govern applies the hard caps and the stress notch to a base grade.
//
// Rules run in order against a working grade:
//  1. leverage section score < 30 -> cap BB
//  2. ND/EBITDA incl. leases > 5.0x -> cap BB
//  3. EBITDA/interest < 1.5x -> cap B+
//  4. covenant flag with "breach" or "at or above" -> cap BB-
//  5. note mentioning "going concern" and "doubt" -> cap B
//  6. any stress scenario ND/EBITDA > 6.0x -> one notch down, clamped at CCC
//
// A cap only moves a grade that is better than it, so the result is never
// better than base. Every rule that moves the grade appends a reason.
func Govern(base models.RatingGrade, in GovernanceInputs) (models.RatingGrade, []string) {
	grade := base
	if !IsValidGrade(grade) {
		grade = WorstGrade()
	}
	applied := []string{}

	capIf := func(cond bool, ceiling models.RatingGrade, reason string) {
		if !cond {
			return
		}
		if capped, moved := CapAt(grade, ceiling); moved {
			grade = capped
			applied = append(applied, reason)
		}
	}

	capIf(in.LeverageScore != nil && *in.LeverageScore < LeverageScoreFloor,
		CapLeverageScore, fmt.Sprintf("Leverage section score < %.0f cap %s", LeverageScoreFloor, CapLeverageScore))

	capIf(in.NetDebtToEbitda != nil && *in.NetDebtToEbitda > MaxNetDebtToEbitda,
		CapNetDebt, fmt.Sprintf("ND/EBITDA > %.1fx cap %s", MaxNetDebtToEbitda, CapNetDebt))

	capIf(in.EbitdaToInterest != nil && *in.EbitdaToInterest < MinEbitdaToInterest,
		CapInterestCover, fmt.Sprintf("Interest cover < %.1fx cap %s", MinEbitdaToInterest, CapInterestCover))

	capIf(hasCovenantBreach(in.CovenantFlags),
		CapCovenant, fmt.Sprintf("Covenant breach cap %s", CapCovenant))

	if id, ok := goingConcernDoubt(in.Notes); ok {
		capIf(true, CapGoingConcern, fmt.Sprintf("Going concern doubt (note %s) cap %s", id, CapGoingConcern))
	}

	if name, ok := stressLeverageBreach(in.StressScenarios); ok {
		notched := NotchDown(grade, 1)
		if notched != grade {
			applied = append(applied, fmt.Sprintf("Stress ND/EBITDA > %.1fx (%s): -1 notch", StressNetDebtToEbitdaMax, name))
		}
		grade = notched
	}

	return grade, applied
}

// hasCovenantBreach reports whether any covenant flag describes a breach
func hasCovenantBreach(flags []string) bool {
	for _, f := range flags {
		lower := strings.ToLower(f)
		if strings.Contains(lower, "breach") || strings.Contains(lower, "at or above") {
			return true
		}
	}
	return false
}

// goingConcernDoubt returns the first note that raises going-concern doubt
func goingConcernDoubt(notes models.Notes) (string, bool) {
	for _, n := range notes {
		text := n.LowerPrefix(GoingConcernScanLimit)
		if strings.Contains(text, "going concern") && strings.Contains(text, "doubt") {
			return n.ID, true
		}
	}
	return "", false
}

// stressLeverageBreach returns the first scenario whose stressed ND/EBITDA exceeds the limit
func stressLeverageBreach(scenarios []models.StressScenario) (string, bool) {
	for _, sc := range scenarios {
		if sc.NetDebtToEbitdaStressed != nil && *sc.NetDebtToEbitdaStressed > StressNetDebtToEbitdaMax {
			return sc.Name, true
		}
	}
	return "", false
}
