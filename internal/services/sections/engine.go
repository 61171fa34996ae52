package sections

import (
	"sort"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/rating"
)

// Input is the read-only snapshot every engine receives
type Input struct {
	Facts               *models.FactSet
	Notes               models.Notes
	CommittedFacilities map[string]float64 // facility type -> undrawn amount
}

// Engine computes one section block from the snapshot
type Engine func(in Input) *models.SectionBlock

// WeightedEngines returns the five weighted section engines keyed by section.
// The map is freshly built on each call.
func WeightedEngines() map[models.SectionKey]Engine {
	return map[models.SectionKey]Engine{
		models.SectionBusinessRisk:         BusinessRisk,
		models.SectionFinancialPerformance: Performance,
		models.SectionLiquidity:            Liquidity,
		models.SectionLeverage:             Leverage,
		models.SectionAccountingQuality:    AccountingQuality,
	}
}

// UndrawnFacilities sums committed undrawn facilities in facility-type order.
// Nil when none were supplied.
func (in Input) UndrawnFacilities() *float64 {
	if len(in.CommittedFacilities) == 0 {
		return nil
	}
	types := make([]string, 0, len(in.CommittedFacilities))
	for t := range in.CommittedFacilities {
		types = append(types, t)
	}
	sort.Strings(types)

	sum := 0.0
	for _, t := range types {
		sum += in.CommittedFacilities[t]
	}
	return &sum
}

// finish clamps, rounds and rates a block's score
func finish(b *models.SectionBlock, score float64) *models.SectionBlock {
	score = rating.ClampScore(score)
	b.Score = common.Round(score, 1)
	b.SectionRating = rating.ScoreToRating(score)
	return b
}
