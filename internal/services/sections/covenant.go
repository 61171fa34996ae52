package sections

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

// Covenant defaults used when the notes do not state the terms
const (
	DefaultLeverageMax      = 2.75
	DefaultInterestCoverMin = 3.5

	covenantScanLimit = 12000
)

// Covenant breach flags. Governance matches on "breach" and "at or above".
const (
	FlagLeverageBreach      = "Covenant breach: ND/EBITDA at or above limit"
	FlagInterestCoverBreach = "Covenant breach: Interest cover below minimum"
)

var (
	leverageTermPattern = regexp.MustCompile(`(?i)exceed\s+(\d+\.?\d*)\s*times`)
	coverTermPattern    = regexp.MustCompile(`(?i)minimum\s+of\s+(\d+\.?\d*)\s*times`)
	undrawnTermPattern  = regexp.MustCompile(`(?i)([\d,.]+)\s*(?:bn|billion)`)
)

// CovenantTerms are the financial covenant limits in force
type CovenantTerms struct {
	LeverageMax      float64
	InterestCoverMin float64
	UndrawnFromNotes *float64 // Base units, parsed from "<n> bn" / "<n> billion"
}

// CovenantResult is the covenant block with the breach flags recommendation reads
type CovenantResult struct {
	Block               *models.SectionBlock
	Terms               CovenantTerms
	LeverageBreach      bool
	InterestCoverBreach bool
}

// Breached reports whether any covenant is breached
func (r CovenantResult) Breached() bool {
	return r.LeverageBreach || r.InterestCoverBreach
}

// ParseCovenantTerms reads covenant limits from notes that mention covenants or
// going concern. Later notes override earlier ones.
func ParseCovenantTerms(notes models.Notes) CovenantTerms {
	terms := CovenantTerms{LeverageMax: DefaultLeverageMax, InterestCoverMin: DefaultInterestCoverMin}
	for _, n := range notes {
		text := n.TextPrefix(covenantScanLimit)
		lower := strings.ToLower(text)
		if !strings.Contains(lower, "covenant") && !strings.Contains(lower, "going concern") {
			continue
		}
		if v, ok := firstFloat(leverageTermPattern, text); ok {
			terms.LeverageMax = v
		}
		if v, ok := firstFloat(coverTermPattern, text); ok {
			terms.InterestCoverMin = v
		}
		if v, ok := firstFloat(undrawnTermPattern, strings.ReplaceAll(text, ",", "")); ok {
			terms.UndrawnFromNotes = common.Float64Ptr(v * 1e9)
		}
	}
	return terms
}

// Covenants measures headroom against the covenant terms for the latest period.
// Headroom score: 95 net cash, 85 with >= 30% leverage headroom, 75 otherwise,
// 15 on any breach, 70 when leverage cannot be measured.
func Covenants(in Input) CovenantResult {
	b := models.NewSectionBlock("Covenants & Headroom")
	b.EvidenceNotes = []string{"Note 48: Going concern", "Note 43.4.3: Covenant terms"}
	terms := ParseCovenantTerms(in.Notes)
	result := CovenantResult{Block: b, Terms: terms}

	var ndEbitda, cover *float64
	if latest := in.Facts.Latest(); latest != "" {
		lm := LeverageMetrics(in.Facts, latest)
		ndEbitda = lm.Ptr("net_debt_to_ebitda_incl_leases")
		cover = lm.Ptr("ebitda_to_interest")
		b.Period = latest
	}

	undrawn := in.UndrawnFacilities()
	if undrawn == nil {
		undrawn = terms.UndrawnFromNotes
	}

	b.KeyMetrics = models.Metrics{
		"covenant_leverage_max":       common.Float64Ptr(terms.LeverageMax),
		"covenant_interest_cover_min": common.Float64Ptr(terms.InterestCoverMin),
		"current_nd_ebitda":           ndEbitda,
		"current_interest_cover":      cover,
		"undrawn_facilities":          undrawn,
	}

	score := 70.0
	if ndEbitda != nil {
		if *ndEbitda < terms.LeverageMax {
			pct := 100.0
			if terms.LeverageMax > 0 {
				pct = 100 * (terms.LeverageMax - *ndEbitda) / terms.LeverageMax
			}
			b.KeyMetrics["leverage_headroom_pct"] = common.Float64Ptr(common.Round(pct, 1))
			switch {
			case *ndEbitda < 0:
				score = 95
			case pct >= 30:
				score = 85
			default:
				score = 75
			}
		} else {
			result.LeverageBreach = true
			b.AddFlag(FlagLeverageBreach)
			b.KeyMetrics["leverage_breach_distance"] = common.Float64Ptr(common.Round(*ndEbitda-terms.LeverageMax, 2))
			score = 15
		}
	}
	if cover != nil && *cover < terms.InterestCoverMin {
		result.InterestCoverBreach = true
		b.AddFlag(FlagInterestCoverBreach)
		b.KeyMetrics["interest_cover_breach_distance"] = common.Float64Ptr(common.Round(terms.InterestCoverMin-*cover, 2))
		if score > 15 {
			score = 15
		}
	}
	b.KeyMetrics["leverage_breach"] = boolMetric(result.LeverageBreach)
	b.KeyMetrics["interest_cover_breach"] = boolMetric(result.InterestCoverBreach)

	result.Block = finish(b, score)
	return result
}

func firstFloat(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func boolMetric(b bool) *float64 {
	if b {
		return common.Float64Ptr(1)
	}
	return common.Float64Ptr(0)
}
