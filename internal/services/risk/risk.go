// Package risk classifies disclosure notes into risk categories and derives
// deterministic triggers from the fact snapshot.
package risk

import (
	"regexp"
	"strings"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/sections"
)

// NoteScanLimit caps the bytes of each note that are scanned
const NoteScanLimit = 6000

// Materiality scores by severity
const (
	MaterialityHigh   = 0.7
	MaterialityMedium = 0.5
)

// TriggerLeaseToEbitda fires when lease liabilities exceed 3x EBITDA
const (
	TriggerLeaseToEbitda = "lease_gt_3x_ebitda"
	leaseToEbitdaMax     = 3.0
)

// Category is a named note pattern
type Category struct {
	Name    string
	Pattern *regexp.Regexp
}

// Categories are tried in order; the first match wins
var Categories = []Category{
	{"impairment", regexp.MustCompile(`(?i)impairment|value.in.use|cgu`)},
	{"lease", regexp.MustCompile(`(?i)lease|ifrs\s*16`)},
	{"contingent", regexp.MustCompile(`(?i)contingent|litigation|guarantee`)},
	{"financial_instruments", regexp.MustCompile(`(?i)fair\s*value|hedge|derivative`)},
	{"going_concern", regexp.MustCompile(`(?i)going\s*concern`)},
	{"related_party", regexp.MustCompile(`(?i)related\s*party`)},
}

var numericToken = regexp.MustCompile(`\d+[\.,]?\d*`)

// ClassifyFunc classifies one note; ok is false when no category matches
type ClassifyFunc func(n models.Note) (item models.RiskItem, ok bool)

// Classify assigns the first matching category to a note
func Classify(n models.Note) (models.RiskItem, bool) {
	text := n.TextPrefix(NoteScanLimit)
	for _, cat := range Categories {
		if !cat.Pattern.MatchString(text) {
			continue
		}
		lower := strings.ToLower(text)
		item := models.RiskItem{
			RiskCategory:     cat.Name,
			NoteID:           n.ID,
			RiskSeverity:     models.SeverityMedium,
			MaterialityScore: MaterialityMedium,
			QuantitativeFlag: numericToken.MatchString(text),
		}
		if strings.Contains(lower, "material") || strings.Contains(lower, "significant") {
			item.RiskSeverity = models.SeverityHigh
			item.MaterialityScore = MaterialityHigh
		}
		return item, true
	}
	return models.RiskItem{}, false
}

// LeaseTrigger compares total lease liabilities with EBITDA for the latest period.
// Undisclosed or zero EBITDA is read as 1.
func LeaseTrigger(fs *models.FactSet) (models.RiskTrigger, bool) {
	pe := fs.Latest()
	if pe == "" {
		return models.RiskTrigger{}, false
	}
	lease := sections.TotalLeases(fs, pe)
	ebitda := common.ValueOr(sections.EBITDA(fs, pe), 0)
	if ebitda == 0 {
		ebitda = 1
	}
	if lease <= 0 || ebitda <= 0 || lease/ebitda <= leaseToEbitdaMax {
		return models.RiskTrigger{}, false
	}
	return models.RiskTrigger{Trigger: TriggerLeaseToEbitda, Value: common.Round(lease/ebitda, 2)}, true
}

// Analyze classifies every note and evaluates the fact triggers
func Analyze(notes models.Notes, fs *models.FactSet) models.RiskResult {
	return AnalyzeWith(notes, fs, Classify)
}

// AnalyzeWith is Analyze with a caller-supplied classifier, e.g. a cached one
func AnalyzeWith(notes models.Notes, fs *models.FactSet, classify ClassifyFunc) models.RiskResult {
	if classify == nil {
		classify = Classify
	}
	res := models.RiskResult{
		RiskItems: []models.RiskItem{},
		Triggers:  []models.RiskTrigger{},
	}
	for _, n := range notes {
		if item, ok := classify(n); ok {
			res.RiskItems = append(res.RiskItems, item)
		}
	}
	if trig, ok := LeaseTrigger(fs); ok {
		res.Triggers = append(res.Triggers, trig)
	}
	return res
}
