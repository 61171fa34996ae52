package models

// RatingGrade is a letter grade on the fixed, totally ordered rating scale
type RatingGrade string

const (
	GradeAAA      RatingGrade = "AAA"
	GradeAAPlus   RatingGrade = "AA+"
	GradeAA       RatingGrade = "AA"
	GradeAAMinus  RatingGrade = "AA-"
	GradeAPlus    RatingGrade = "A+"
	GradeA        RatingGrade = "A"
	GradeAMinus   RatingGrade = "A-"
	GradeBBBPlus  RatingGrade = "BBB+"
	GradeBBB      RatingGrade = "BBB"
	GradeBBBMinus RatingGrade = "BBB-"
	GradeBBPlus   RatingGrade = "BB+"
	GradeBB       RatingGrade = "BB"
	GradeBBMinus  RatingGrade = "BB-"
	GradeBPlus    RatingGrade = "B+"
	GradeB        RatingGrade = "B"
	GradeBMinus   RatingGrade = "B-"
	GradeCCC      RatingGrade = "CCC"
)

// RatingOrder lists every grade from best to worst
var RatingOrder = []RatingGrade{
	GradeAAA, GradeAAPlus, GradeAA, GradeAAMinus,
	GradeAPlus, GradeA, GradeAMinus,
	GradeBBBPlus, GradeBBB, GradeBBBMinus,
	GradeBBPlus, GradeBB, GradeBBMinus,
	GradeBPlus, GradeB, GradeBMinus,
	GradeCCC,
}
