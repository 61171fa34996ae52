package rating

import "github.com/ternarybob/creditcore/internal/models"

// gradeBand is a minimum aggregate score for a grade
type gradeBand struct {
	Min   float64
	Grade models.RatingGrade
}

// Aggregate score bands, best first
var gradeBands = []gradeBand{
	{85, models.GradeAAA},
	{80, models.GradeAAPlus},
	{75, models.GradeAA},
	{70, models.GradeAAMinus},
	{65, models.GradeAPlus},
	{60, models.GradeA},
	{55, models.GradeAMinus},
	{50, models.GradeBBBPlus},
	{45, models.GradeBBB},
	{40, models.GradeBBBMinus},
	{35, models.GradeBBPlus},
	{30, models.GradeBB},
	{25, models.GradeBBMinus},
	{20, models.GradeBPlus},
	{15, models.GradeB},
	{10, models.GradeBMinus},
}

var gradeIndex = func() map[models.RatingGrade]int {
	idx := make(map[models.RatingGrade]int, len(models.RatingOrder))
	for i, g := range models.RatingOrder {
		idx[g] = i
	}
	return idx
}()

// WorstGrade is the bottom of the scale
func WorstGrade() models.RatingGrade {
	return models.RatingOrder[len(models.RatingOrder)-1]
}

// GradeIndex returns the position of a grade on the scale, 0 being best.
// Unknown grades are treated as the worst grade.
func GradeIndex(g models.RatingGrade) int {
	if i, ok := gradeIndex[g]; ok {
		return i
	}
	return len(models.RatingOrder) - 1
}

// IsValidGrade reports whether g is on the scale
func IsValidGrade(g models.RatingGrade) bool {
	_, ok := gradeIndex[g]
	return ok
}

// IsBetter reports whether a is strictly better than b
func IsBetter(a, b models.RatingGrade) bool {
	return GradeIndex(a) < GradeIndex(b)
}

// NotchDown moves a grade n steps worse, clamped at the worst grade
func NotchDown(g models.RatingGrade, n int) models.RatingGrade {
	if n < 0 {
		n = 0
	}
	i := GradeIndex(g) + n
	if i > len(models.RatingOrder)-1 {
		i = len(models.RatingOrder) - 1
	}
	return models.RatingOrder[i]
}

// CapAt returns ceiling when g is better than it, otherwise g unchanged.
// The second return reports whether the cap moved the grade.
func CapAt(g, ceiling models.RatingGrade) (models.RatingGrade, bool) {
	if IsBetter(g, ceiling) {
		return ceiling, true
	}
	return g, false
}

// ScoreToGrade maps an aggregate score to a letter grade
func ScoreToGrade(score float64) models.RatingGrade {
	for _, b := range gradeBands {
		if score >= b.Min {
			return b.Grade
		}
	}
	return models.GradeCCC
}

// ScoreToRating maps a 0-100 section score to Strong/Adequate/Weak.
// Lower bounds are inclusive.
func ScoreToRating(score float64) models.SectionRating {
	if score >= ThresholdStrong {
		return models.RatingStrong
	}
	if score >= ThresholdAdequate {
		return models.RatingAdequate
	}
	return models.RatingWeak
}

// RatingToScore returns the fixed midpoint for a section rating.
// It is not an inverse of ScoreToRating.
func RatingToScore(r models.SectionRating) float64 {
	switch r {
	case models.RatingStrong:
		return MidpointStrong
	case models.RatingAdequate:
		return MidpointAdequate
	case models.RatingWeak:
		return MidpointWeak
	}
	return MidpointUnknown
}
