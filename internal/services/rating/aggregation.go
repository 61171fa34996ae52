package rating

import (
	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

// Aggregate combines the weighted section scores into a base score and grade.
//
// Formula:
// aggregate = sum(score_i * weight_i) / sum(weight_i)
// over sections present in blocks only. A missing section drops out of both
// the sum and the weight total. With no sections present the score is 50.
//
// The result has RatingGrade == BaseGrade; Govern applies the caps.
func Aggregate(blocks map[models.SectionKey]*models.SectionBlock, weights Weights) models.AggregationResult {
	var scores, ws []float64
	breakdown := make(map[models.SectionKey]models.SectionBreakdown)

	for _, key := range WeightedSections {
		block, ok := blocks[key]
		if !ok || block == nil {
			continue
		}
		w := weights[key]
		scores = append(scores, block.Score)
		ws = append(ws, float64(w))
		breakdown[key] = models.SectionBreakdown{
			Score:  block.Score,
			Rating: block.SectionRating,
			Weight: w,
		}
	}

	score, ok := WeightedMean(scores, ws)
	if !ok {
		score = NeutralScore
	}

	grade := ScoreToGrade(score)
	return models.AggregationResult{
		AggregateScore:   common.Round(score, 1),
		RatingGrade:      grade,
		BaseGrade:        grade,
		GovernanceRules:  []string{},
		SectionBreakdown: breakdown,
	}
}

// Rate aggregates the weighted sections and then applies governance to the base grade
func Rate(blocks map[models.SectionKey]*models.SectionBlock, weights Weights, in GovernanceInputs) models.AggregationResult {
	result := Aggregate(blocks, weights)
	final, rules := Govern(result.BaseGrade, in)
	result.RatingGrade = final
	result.GovernanceRules = rules
	return result
}
