package models

// SectionSchemaVersion is bumped whenever the SectionBlock layout changes
const SectionSchemaVersion = "1"

// SectionKey identifies a section engine output
type SectionKey string

const (
	SectionBusinessRisk         SectionKey = "business_risk"
	SectionFinancialPerformance SectionKey = "financial_performance"
	SectionLiquidity            SectionKey = "liquidity"
	SectionLeverage             SectionKey = "leverage"
	SectionAccountingQuality    SectionKey = "accounting_quality"
	SectionStress               SectionKey = "stress"    // governance only, never weighted
	SectionCovenants            SectionKey = "covenants" // governance only, never weighted
)

// SectionRating is the coarse three-level label for a section score
type SectionRating string

const (
	RatingStrong   SectionRating = "Strong"
	RatingAdequate SectionRating = "Adequate"
	RatingWeak     SectionRating = "Weak"
)

// Metrics is a named numeric map; a nil entry means the metric could not be computed
type Metrics map[string]*float64

// Get returns the metric value and whether it is present and non-nil
func (m Metrics) Get(name string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	v, ok := m[name]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Ptr returns the metric pointer, nil when absent
func (m Metrics) Ptr(name string) *float64 {
	v, ok := m.Get(name)
	if !ok {
		return nil
	}
	return &v
}

// SectionBlock is the output of one section engine
type SectionBlock struct {
	SchemaVersion string              `json:"schema_version"`
	SectionName   string              `json:"section_name"`
	KeyMetrics    Metrics             `json:"key_metrics"`
	Score         float64             `json:"score"` // 0-100
	SectionRating SectionRating       `json:"section_rating"`
	RiskFlags     []string            `json:"risk_flags"`
	EvidenceNotes []string            `json:"evidence_notes"`
	Period        string              `json:"period,omitempty"`
	ByPeriod      map[string]Metrics  `json:"by_period,omitempty"`
	Labels        map[string][]string `json:"labels,omitempty"` // Non-numeric findings, e.g. geographic regions
}

// NewSectionBlock returns an empty block with the neutral default score
func NewSectionBlock(name string) *SectionBlock {
	return &SectionBlock{
		SchemaVersion: SectionSchemaVersion,
		SectionName:   name,
		KeyMetrics:    Metrics{},
		Score:         50.0,
		SectionRating: RatingAdequate,
		RiskFlags:     []string{},
		EvidenceNotes: []string{},
	}
}

// AddFlag appends a human-readable risk flag
func (b *SectionBlock) AddFlag(flag string) {
	b.RiskFlags = append(b.RiskFlags, flag)
}
