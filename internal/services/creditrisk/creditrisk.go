// Package creditrisk quantifies expected loss from the final grade and the
// latest period's balance sheet: PD from the grade's band, EAD from drawn and
// undrawn exposure, and LGD from an asset-bucket recovery estimate.
package creditrisk

import (
	"fmt"
	"sort"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/rating"
	"github.com/ternarybob/creditcore/internal/services/sections"
)

// Exposure and recovery assumptions
const (
	CreditConversionFactor = 0.75
	DistressHaircut        = 0.25
	SeniorityOnBreach      = 0.85
	SeniorityPerforming    = 0.95
	RecoveryFloor          = 0.05
	RecoveryCap            = 0.90
	DownturnLGDMultiplier  = 1.25
	DownturnLGDCap         = 0.98
	Stage2Leverage         = 4.5
)

// IFRS 9 stage labels
const (
	Stage1 = "Stage 1"
	Stage2 = "Stage 2"
)

// Recovery rates by asset bucket
var recoveryRates = []struct {
	bucket string
	keys   []string
	rate   float64
}{
	{"cash", []string{sections.KeyCash}, 1.00},
	{"investment_properties", []string{"investment_property"}, 0.70},
	{"inventory", []string{sections.KeyInventories}, 0.50},
	{"receivables", []string{sections.KeyTradeReceivables, sections.KeyOtherReceivables}, 0.55},
	{"ppe", []string{"property_plant_equipment"}, 0.45},
	{"intangibles", []string{"intangible_assets"}, 0.05},
}

// PDBands maps each grade to its probability of default in percentage points
// (BBB = 0.8 means 0.8%)
type PDBands map[models.RatingGrade]float64

// DefaultPDBands returns the standard through-the-cycle PD table
func DefaultPDBands() PDBands {
	return PDBands{
		models.GradeAAA:      0.01,
		models.GradeAAPlus:   0.02,
		models.GradeAA:       0.03,
		models.GradeAAMinus:  0.05,
		models.GradeAPlus:    0.07,
		models.GradeA:        0.10,
		models.GradeAMinus:   0.15,
		models.GradeBBBPlus:  0.50,
		models.GradeBBB:      0.80,
		models.GradeBBBMinus: 1.20,
		models.GradeBBPlus:   1.80,
		models.GradeBB:       2.50,
		models.GradeBBMinus:  3.50,
		models.GradeBPlus:    5.00,
		models.GradeB:        7.50,
		models.GradeBMinus:   11.00,
		models.GradeCCC:      20.00,
	}
}

// Validate rejects unknown grades and bands outside [0, 100]
func (b PDBands) Validate() error {
	grades := make([]string, 0, len(b))
	for g := range b {
		grades = append(grades, string(g))
	}
	sort.Strings(grades)
	for _, g := range grades {
		if !rating.IsValidGrade(models.RatingGrade(g)) {
			return models.NewConfigurationError("rating.pd_bands", "unknown grade %q", g)
		}
		if v := b[models.RatingGrade(g)]; v < 0 || v > 100 {
			return models.NewConfigurationError("rating.pd_bands", "band for %s must be within [0, 100], got %s", g, fmt.Sprint(v))
		}
	}
	return nil
}

// PD converts the grade's band to a decimal probability. Nil when the grade has no band.
func (b PDBands) PD(grade models.RatingGrade) *float64 {
	v, ok := b[grade]
	if !ok {
		return nil
	}
	pd := rating.ClampFloat64(v/100, 0, 1)
	return &pd
}

// Inputs carries what the quantification reads
type Inputs struct {
	Facts          *models.FactSet
	Grade          models.RatingGrade
	Bands          PDBands
	Undrawn        *float64 // Committed undrawn facilities
	CovenantBreach bool
}

// Quantify computes PD, LGD, EAD and expected loss for the latest period
func Quantify(in Inputs) models.CreditRisk {
	fs := in.Facts
	period := fs.Latest()

	pd := in.Bands.PD(in.Grade)

	drawn := DrawnExposure(fs, period)
	undrawn := common.ValueOr(in.Undrawn, 0)
	ead := drawn + CreditConversionFactor*undrawn

	byAsset := make(map[string]float64, len(recoveryRates))
	gross := 0.0
	for _, r := range recoveryRates {
		held := 0.0
		for _, k := range r.keys {
			held += fs.ValueOrZero(k, period)
		}
		byAsset[r.bucket] = common.Round(held*r.rate, 2)
		gross += held * r.rate
	}

	seniority := SeniorityPerforming
	if in.CovenantBreach {
		seniority = SeniorityOnBreach
	}
	net := gross * (1 - DistressHaircut) * seniority

	recovery := RecoveryFloor
	if ead > 0 {
		recovery = rating.ClampFloat64(net/ead, RecoveryFloor, RecoveryCap)
	}
	lgd := 1 - recovery
	downturn := min(DownturnLGDCap, lgd*DownturnLGDMultiplier)

	pdValue := common.ValueOr(pd, 0)

	stage := Stage1
	if in.CovenantBreach {
		stage = Stage2
	} else if nd := sections.NetDebtToEbitda(fs, period); nd != nil && *nd > Stage2Leverage {
		stage = Stage2
	}

	return models.CreditRisk{
		PeriodEnd:            period,
		RatingGrade:          in.Grade,
		PD:                   common.RoundPtr(pd, 6),
		LGD:                  common.Round(lgd, 4),
		DownturnLGD:          common.Round(downturn, 4),
		EAD:                  common.Round(ead, 2),
		CCF:                  CreditConversionFactor,
		DrawnExposure:        common.Round(drawn, 2),
		UndrawnCommitments:   common.Round(undrawn, 2),
		ExpectedLoss:         common.Round(pdValue*lgd*ead, 2),
		ExpectedLossDownturn: common.Round(pdValue*downturn*ead, 2),
		IFRS9Stage:           stage,
		DistressHaircut:      DistressHaircut,
		SeniorityFactor:      seniority,
		RecoveryByAsset:      byAsset,
	}
}

// DrawnExposure is net debt including leases, falling back to net debt
// excluding leases, then to gross borrowings plus leases when net debt is not positive
func DrawnExposure(fs *models.FactSet, period string) float64 {
	drawn := 0.0
	if nd := sections.NetDebtInclLeases(fs, period); nd != nil && *nd != 0 {
		drawn = *nd
	} else if nd := sections.NetDebtExLeases(fs, period); nd != nil {
		drawn = *nd
	}
	if drawn > 0 {
		return drawn
	}
	gross := fs.ValueOrZero(sections.KeyLongTermBorrowings, period) +
		fs.ValueOrZero(sections.KeyShortTermBorrowings, period) +
		fs.ValueOrZero(sections.KeyCurrentPortionLTD, period) +
		sections.TotalLeases(fs, period)
	return max(0, gross)
}
