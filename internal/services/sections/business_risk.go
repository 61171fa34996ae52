package sections

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

// Note text scanned per note, and result limits
const (
	segmentScanLimit   = 8000
	geographyScanLimit = 4000
	maxSegments        = 10
	maxRegions         = 8
	regionsInEvidence  = 5
)

var (
	segmentPattern = regexp.MustCompile(`(?i)(?:South Africa|Rest of Africa|Retail|Wholesale|Trading|Other)[^\d]{0,30}`)
	regionPattern  = regexp.MustCompile(`(?i)(?:South Africa|Nigeria|Namibia|Botswana|Lesotho|Mozambique|Zambia|Malawi|Angola)`)
)

// ExtractSegments finds operating segment names in notes that discuss segments or revenue
func ExtractSegments(notes models.Notes) []string {
	var segments []string
	seen := make(map[string]bool)
	for _, n := range notes {
		text := n.TextPrefix(segmentScanLimit)
		lower := strings.ToLower(text)
		if !strings.Contains(lower, "segment") && !strings.Contains(lower, "revenue") {
			continue
		}
		for _, m := range segmentPattern.FindAllString(text, -1) {
			seg := strings.TrimRight(strings.TrimSpace(m), ":")
			if len(seg) > 2 && !seen[seg] {
				seen[seg] = true
				segments = append(segments, seg)
			}
		}
	}
	if len(segments) > maxSegments {
		segments = segments[:maxSegments]
	}
	return segments
}

// ExtractRegions finds named countries in notes that discuss geography or segments
func ExtractRegions(notes models.Notes) []string {
	var regions []string
	seen := make(map[string]bool)
	for _, n := range notes {
		text := n.TextPrefix(geographyScanLimit)
		lower := strings.ToLower(text)
		if !strings.Contains(lower, "geographic") && !strings.Contains(lower, "segment") {
			continue
		}
		for _, r := range regionPattern.FindAllString(text, -1) {
			if !seen[r] {
				seen[r] = true
				regions = append(regions, r)
			}
		}
	}
	if len(regions) > maxRegions {
		regions = regions[:maxRegions]
	}
	return regions
}

// BusinessRisk scores revenue stability, segment diversification and margin.
// Section score = 0.4 * stability + 0.35 * diversification + 0.25 * margin.
func BusinessRisk(in Input) *models.SectionBlock {
	b := models.NewSectionBlock("Business Risk Assessment")

	fs := in.Facts
	latest := fs.Latest()
	if latest == "" {
		return b
	}
	trend := ComputeTrend(fs)

	rev := fs.ValueOrZero(KeyRevenue, latest)
	ebitda := common.ValueOr(EBITDA(fs, latest), 0)
	var margin *float64
	if rev > 0 {
		margin = common.Float64Ptr(100 * ebitda / rev)
	}

	b.KeyMetrics = models.Metrics{
		"revenue":            common.Float64Ptr(common.Round(rev, 2)),
		"revenue_growth_pct": common.RoundPtr(trend.RevenueGrowthPct, 1),
		"ebitda_growth_pct":  common.RoundPtr(trend.EbitdaGrowthPct, 1),
		"ebitda_margin_pct":  common.RoundPtr(margin, 1),
		"margin_delta_bps":   common.RoundPtr(trend.MarginDeltaBps, 0),
	}

	segments := ExtractSegments(in.Notes)
	regions := ExtractRegions(in.Notes)
	b.Labels = map[string][]string{}
	if len(segments) > 0 {
		b.KeyMetrics["segment_count"] = common.Float64Ptr(float64(len(segments)))
		b.Labels["segments"] = segments
		b.EvidenceNotes = append(b.EvidenceNotes, fmt.Sprintf("Operating segments (Note 2/26): %d identified", len(segments)))
	}
	if len(regions) > 0 {
		b.Labels["geographic_regions"] = regions
		shown := regions
		if len(shown) > regionsInEvidence {
			shown = shown[:regionsInEvidence]
		}
		b.EvidenceNotes = append(b.EvidenceNotes, "Geographic exposure: "+strings.Join(shown, ", "))
	}

	stability := 50.0
	if g := trend.RevenueGrowthPct; g != nil {
		switch {
		case *g >= -5 && *g <= 15:
			stability += 15
		case *g >= -10 && *g <= 25:
			stability += 5
		case math.Abs(*g) > 30:
			stability -= 20
			b.AddFlag("High revenue volatility")
		}
	}
	if g := trend.EbitdaGrowthPct; g != nil && *g < -10 {
		stability -= 15
		b.AddFlag("EBITDA decline")
	}

	var diversification float64
	switch n := len(segments); {
	case n >= 3:
		diversification = 70
	case n == 2:
		diversification = 60
	case n == 1:
		diversification = 40
		b.AddFlag("Limited segment concentration")
	default:
		diversification = 50
	}

	marginScore := 50.0
	if m := common.ValueOr(margin, 0); m >= 5 {
		marginScore = 65
	} else if m >= 2 {
		marginScore = 55
	}
	if margin != nil && *margin < 0 {
		marginScore = 25
		b.AddFlag("Negative EBITDA margin")
	}

	b.EvidenceNotes = append(b.EvidenceNotes, "Note 2: Operating segments", "Note 26: Revenue", "Note 43: Risk management")
	b.Period = latest
	return finish(b, stability*0.4+diversification*0.35+marginScore*0.25)
}
