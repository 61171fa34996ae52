package models

// ValidationStatus is the graded outcome of the validation gate
type ValidationStatus string

const (
	StatusPass ValidationStatus = "PASS"
	StatusWarn ValidationStatus = "WARN"
	StatusFail ValidationStatus = "FAIL"
)

// ValidationItem is one itemized failure or warning
type ValidationItem struct {
	Check      string   `json:"check"`
	Period     string   `json:"period,omitempty"`
	Message    string   `json:"message"`
	Difference *float64 `json:"difference,omitempty"`
	Tolerance  *float64 `json:"tolerance,omitempty"`
}

// ValidationResult is the output of the validation gate
type ValidationResult struct {
	Status   ValidationStatus `json:"status"`
	Checks   []string         `json:"checks"`
	Failures []ValidationItem `json:"failures"`
	Warnings []ValidationItem `json:"warnings"`
}

// Passed reports whether downstream scoring may proceed
func (v *ValidationResult) Passed() bool {
	return v != nil && v.Status != StatusFail
}

// StressScenario holds the stressed metrics of one downside scenario
type StressScenario struct {
	Name                    string   `json:"name"`
	Period                  string   `json:"period"`
	RevenueStressed         *float64 `json:"revenue_stressed,omitempty"`
	EbitdaStressed          *float64 `json:"ebitda_stressed,omitempty"`
	ExtraInterest           *float64 `json:"extra_interest,omitempty"`
	WorkingCapitalShock     *float64 `json:"wc_shock_amount,omitempty"`
	InterestCoverStressed   *float64 `json:"interest_cover_stressed"`
	NetDebtToEbitdaStressed *float64 `json:"net_debt_to_ebitda_stressed"`
	CashAfterShock          *float64 `json:"cash_after_shock"`
	STDebtToCashStressed    *float64 `json:"st_debt_to_cash_stressed,omitempty"`
}

// StressResult collects every scenario run against the latest period
type StressResult struct {
	Period          string           `json:"period"`
	Scenarios       []StressScenario `json:"scenarios"`
	ResilienceScore float64          `json:"resilience_score"`
	Breaches        int              `json:"breaches"` // Scenarios with at least one breached condition
}

// RiskSeverity grades a note-derived risk item
type RiskSeverity string

const (
	SeverityHigh   RiskSeverity = "HIGH"
	SeverityMedium RiskSeverity = "MEDIUM"
)

// RiskItem is one note classified into a risk category
type RiskItem struct {
	RiskCategory     string       `json:"risk_category"`
	NoteID           string       `json:"note_id"`
	RiskSeverity     RiskSeverity `json:"risk_severity"`
	MaterialityScore float64      `json:"materiality_score"`
	QuantitativeFlag bool         `json:"quantitative_flag"`
}

// RiskTrigger is a deterministic threshold breach derived from facts
type RiskTrigger struct {
	Trigger string  `json:"trigger"`
	Value   float64 `json:"value"`
}

// RiskResult is the output of the notes risk engine
type RiskResult struct {
	RiskItems []RiskItem    `json:"risk_items"`
	Triggers  []RiskTrigger `json:"triggers"`
}

// SectionBreakdown records one weighted section's contribution
type SectionBreakdown struct {
	Score  float64       `json:"score"`
	Rating SectionRating `json:"rating"`
	Weight int           `json:"weight"`
}

// AggregationResult is the weighted rating before and after governance
type AggregationResult struct {
	AggregateScore   float64                         `json:"aggregate_score"`
	RatingGrade      RatingGrade                     `json:"rating_grade"` // Post-governance
	BaseGrade        RatingGrade                     `json:"base_grade"`   // Pre-governance
	GovernanceRules  []string                        `json:"governance_rules"`
	SectionBreakdown map[SectionKey]SectionBreakdown `json:"section_breakdown"`
}

// RecommendationLabel is the credit action label
type RecommendationLabel string

const (
	RecommendApprove  RecommendationLabel = "Approve"
	RecommendMaintain RecommendationLabel = "Maintain"
	RecommendCaution  RecommendationLabel = "Caution"
	RecommendDecline  RecommendationLabel = "Decline"
)

// Recommendation is the rules-based action with its justifying conditions
type Recommendation struct {
	Label      RecommendationLabel `json:"label"`
	Conditions []string            `json:"conditions"`
}

// CreditRisk holds the PD / LGD / EAD / expected loss quantification
type CreditRisk struct {
	PeriodEnd            string             `json:"period_end"`
	RatingGrade          RatingGrade        `json:"rating_grade"`
	PD                   *float64           `json:"pd"`
	LGD                  float64            `json:"lgd"`
	DownturnLGD          float64            `json:"downturn_lgd"`
	EAD                  float64            `json:"ead"`
	CCF                  float64            `json:"ccf"`
	DrawnExposure        float64            `json:"drawn_exposure"`
	UndrawnCommitments   float64            `json:"undrawn_commitments"`
	ExpectedLoss         float64            `json:"expected_loss"`
	ExpectedLossDownturn float64            `json:"expected_loss_downturn"`
	IFRS9Stage           string             `json:"ifrs9_stage"`
	DistressHaircut      float64            `json:"distress_haircut"`
	SeniorityFactor      float64            `json:"seniority_factor"`
	RecoveryByAsset      map[string]float64 `json:"recovery_by_asset"`
}

// Metric is a computed per-period value with its calculation trace
type Metric struct {
	MetricKey string   `json:"metric_key"`
	PeriodEnd string   `json:"period_end"`
	Value     float64  `json:"value"`
	CalcTrace []string `json:"calc_trace"`
}

// FactProvenance is one fact as cited in the output
type FactProvenance struct {
	CanonicalKey string      `json:"canonical_key"`
	PeriodEnd    string      `json:"period_end"`
	ValueBase    float64     `json:"value_base"`
	SourceRefs   []SourceRef `json:"source_refs"`
}

// SectionCitation lists what a section block drew on
type SectionCitation struct {
	MetricKeys    []string `json:"metric_keys"`
	EvidenceNotes []string `json:"evidence_notes"`
}

// Provenance is the audit trail attached to an analysis
type Provenance struct {
	Facts            []FactProvenance               `json:"facts"`
	Metrics          []Metric                       `json:"metrics"`
	SectionCitations map[SectionKey]SectionCitation `json:"section_citations"`
}

// Versions stamps the output with the format and model versions that produced it
type Versions struct {
	MappingRules  string `json:"mapping_rules" toml:"mapping_rules"`
	EngineFormula string `json:"engine_formula" toml:"engine_formula"`
	RatingModel   string `json:"rating_model" toml:"rating_model"`
	MemoTemplate  string `json:"memo_template" toml:"memo_template"`
}

// AnalysisRequest is the input snapshot for one pipeline run
type AnalysisRequest struct {
	CompanyName         string             `json:"company_name,omitempty" yaml:"company_name,omitempty"`
	Periods             []string           `json:"periods" yaml:"periods" validate:"required,min=1,dive,datetime=2006-01-02"`
	Facts               []Fact             `json:"facts,omitempty" yaml:"facts,omitempty" validate:"dive"`
	RawStatements       []RawStatementRow  `json:"raw_statements,omitempty" yaml:"raw_statements,omitempty" validate:"dive"`
	Scale               string             `json:"scale,omitempty" yaml:"scale,omitempty"` // Scale literal for raw statements
	Notes               map[string]Note    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CommittedFacilities map[string]float64 `json:"committed_facilities,omitempty" yaml:"committed_facilities,omitempty"` // facility type -> undrawn amount
}

// AnalysisResult is the data-only output of one pipeline run
type AnalysisResult struct {
	AnalysisID     string                       `json:"analysis_id"`
	CompanyName    string                       `json:"company_name,omitempty"`
	Status         ValidationStatus             `json:"status"`
	Periods        []string                     `json:"periods"`
	Validation     ValidationResult             `json:"validation"`
	RejectedKeys   []string                     `json:"rejected_keys,omitempty"`
	SectionBlocks  map[SectionKey]*SectionBlock `json:"section_blocks,omitempty"`
	Aggregation    *AggregationResult           `json:"aggregation,omitempty"`
	Stress         *StressResult                `json:"stress,omitempty"`
	Risk           *RiskResult                  `json:"risk,omitempty"`
	Recommendation *Recommendation              `json:"recommendation,omitempty"`
	CreditRisk     *CreditRisk                  `json:"credit_risk,omitempty"`
	Provenance     *Provenance                  `json:"provenance,omitempty"`
	Versions       Versions                     `json:"versions"`
}
