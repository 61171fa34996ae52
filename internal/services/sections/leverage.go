package sections

import (
	"math"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/rating"
)

// Implicit interest rate applied to lease liabilities for fixed charge cover
const leaseChargeRate = 0.10

// LeverageMetrics computes the capital structure metrics for one period
func LeverageMetrics(fs *models.FactSet, period string) models.Metrics {
	ebitda := EBITDA(fs, period)
	leaseC := fs.ValueOrZero(KeyLeaseCurrent, period)
	leaseNC := fs.ValueOrZero(KeyLeaseNonCurrent, period)
	equity := fs.ValueOrZero(KeyTotalEquity, period)

	grossDebt := fs.ValueOrZero(KeyShortTermBorrowings, period) +
		fs.ValueOrZero(KeyCurrentPortionLTD, period) +
		fs.ValueOrZero(KeyLongTermBorrowings, period) +
		leaseC + leaseNC
	ndEx := NetDebtExLeases(fs, period)
	ndIncl := NetDebtInclLeases(fs, period)

	var debtToCapital *float64
	if capital := equity + grossDebt; capital > 0 {
		debtToCapital = common.Float64Ptr(common.Round(grossDebt/capital, 4))
	}

	interest := InterestExpense(fs, period)

	// Negative cover is reported as missing, so the interest cover cap never
	// fires on negative EBITDA; that case is scored through net debt instead.
	var ebitdaToInterest *float64
	if ebitda != nil && interest > 0 {
		ebitdaToInterest = nonNegative(common.Round(*ebitda/interest, 2))
	}

	fixedCharge := interest + (leaseC+leaseNC)*leaseChargeRate
	var fixedChargeCover *float64
	switch {
	case ebitda != nil && fixedCharge > 0:
		fixedChargeCover = nonNegative(common.Round(*ebitda/fixedCharge, 2))
	default:
		fixedChargeCover = ebitdaToInterest
	}

	var ndEbitdaEx, ndEbitdaIncl *float64
	if nonZero(ebitda) {
		if ndEx != nil {
			ndEbitdaEx = common.Float64Ptr(common.Round(*ndEx / *ebitda, 2))
		}
		if ndIncl != nil {
			ndEbitdaIncl = common.Float64Ptr(common.Round(*ndIncl / *ebitda, 2))
		}
	}

	return models.Metrics{
		"net_debt_ex_leases":             ndEx,
		"net_debt_incl_leases":           ndIncl,
		"gross_debt":                     common.Float64Ptr(grossDebt),
		"debt_to_capital":                debtToCapital,
		"net_debt_to_ebitda_ex_leases":   ndEbitdaEx,
		"net_debt_to_ebitda_incl_leases": ndEbitdaIncl,
		"ebitda_to_interest":             ebitdaToInterest,
		"fixed_charge_cover":             fixedChargeCover,
		"lease_adjusted_interest_cover":  fixedChargeCover,
	}
}

// InterestExpense is cash interest paid when reported as an outflow, else
// finance costs when reported as an outflow, else zero
func InterestExpense(fs *models.FactSet, period string) float64 {
	if paid, ok := fs.Value(KeyInterestPaid, period); ok && paid < 0 {
		return math.Abs(paid)
	}
	return FinanceCostMagnitude(fs, period)
}

// Leverage scores net debt / EBITDA and interest cover for the latest period.
//
// Leverage strength (ND/EBITDA incl. leases):
// net cash 90, <=1x 80, <=2x 65, <=3x 50, <=4x 35, else 20.
// Coverage (EBITDA / interest):
// >=5x 90, >=3.5x 75, >=2.5x 60, >=2x 45, else 25.
// Section score is the mean of the two.
func Leverage(in Input) *models.SectionBlock {
	b := models.NewSectionBlock("Leverage & Capital Structure")
	b.EvidenceNotes = []string{"Note 21: Borrowings", "Note 20: Lease liabilities", "Note 39: Contingent liabilities"}

	latest := in.Facts.Latest()
	if latest == "" {
		return b
	}

	b.ByPeriod = make(map[string]models.Metrics)
	for _, p := range in.Facts.Periods() {
		b.ByPeriod[p] = LeverageMetrics(in.Facts, p)
	}
	km := b.ByPeriod[latest]
	b.KeyMetrics = km
	b.Period = latest

	leverageScore := 50.0
	ndEbitda, hasRatio := km.Get("net_debt_to_ebitda_incl_leases")
	ndIncl, hasND := km.Get("net_debt_incl_leases")
	ebitda := EBITDA(in.Facts, latest)

	switch {
	case hasRatio && hasND && ndIncl > 0 && ebitda != nil && *ebitda < 0:
		// Net debt against negative EBITDA has no meaningful multiple
		leverageScore = 20
		b.AddFlag("Net debt with negative EBITDA")
	case hasRatio && ndEbitda < 0:
		leverageScore = 90
	case hasRatio && ndEbitda <= 1.0:
		leverageScore = 80
	case hasRatio && ndEbitda <= 2.0:
		leverageScore = 65
	case hasRatio && ndEbitda <= 3.0:
		leverageScore = 50
	case hasRatio && ndEbitda <= 4.0:
		leverageScore = 35
		b.AddFlag("ND/EBITDA above 3x")
	case hasRatio:
		leverageScore = 20
		b.AddFlag("High leverage (ND/EBITDA > 4x)")
	case hasND && ndIncl < 0:
		leverageScore = 85
	}

	coverageScore := 50.0
	if ic, ok := km.Get("ebitda_to_interest"); ok {
		switch {
		case ic >= 5.0:
			coverageScore = 90
		case ic >= 3.5:
			coverageScore = 75
		case ic >= 2.5:
			coverageScore = 60
		case ic >= 2.0:
			coverageScore = 45
			b.AddFlag("Interest cover below 2.5x")
		default:
			coverageScore = 25
			b.AddFlag("Interest cover below 2x")
		}
	}

	return finish(b, rating.Mean([]float64{leverageScore, coverageScore}))
}

func nonNegative(v float64) *float64 {
	if v < 0 {
		return nil
	}
	return &v
}
