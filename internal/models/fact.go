package models

import (
	"sort"
)

// StatementType tags a canonical key with the statement it is reported on
type StatementType string

const (
	StatementSFP  StatementType = "SFP"  // Statement of financial position (balance sheet)
	StatementSCI  StatementType = "SCI"  // Statement of comprehensive income
	StatementCF   StatementType = "CF"   // Cash flow statement
	StatementNote StatementType = "NOTE" // Disclosure note
)

// Valid reports whether the statement type is one of the known tags
func (s StatementType) Valid() bool {
	switch s {
	case StatementSFP, StatementSCI, StatementCF, StatementNote:
		return true
	}
	return false
}

// SourceRef points at the evidence a fact was read from
type SourceRef struct {
	DocumentID string `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Page       int    `json:"page,omitempty" yaml:"page,omitempty"`
	Statement  string `json:"statement,omitempty" yaml:"statement,omitempty"`
	LineLabel  string `json:"line_label,omitempty" yaml:"line_label,omitempty"`
}

// FactKey uniquely identifies a fact: one canonical key in one period
type FactKey struct {
	CanonicalKey string
	PeriodEnd    string // ISO date, e.g. 2024-12-31
}

// Fact is a single normalized statement value in base currency units.
// A nil ValueBase means "not disclosed" and is never read as zero.
type Fact struct {
	CanonicalKey  string      `json:"canonical_key" yaml:"canonical_key" validate:"required"`
	PeriodEnd     string      `json:"period_end" yaml:"period_end" validate:"required,datetime=2006-01-02"`
	ValueBase     *float64    `json:"value_base" yaml:"value_base"`
	ValueOriginal string      `json:"value_original,omitempty" yaml:"value_original,omitempty"`
	Unit          string      `json:"unit,omitempty" yaml:"unit,omitempty"`   // Currency code, e.g. ZAR
	Scale         string      `json:"scale,omitempty" yaml:"scale,omitempty"` // units, thousand, million, billion
	SourceRefs    []SourceRef `json:"source_refs,omitempty" yaml:"source_refs,omitempty"`
}

// Key returns the fact's unique key
func (f Fact) Key() FactKey {
	return FactKey{CanonicalKey: f.CanonicalKey, PeriodEnd: f.PeriodEnd}
}

// FactSet is a read-only snapshot of facts and the reporting periods they cover.
// Engines only ever read from it.
type FactSet struct {
	facts   map[FactKey]Fact
	periods []string
}

// NewFactSet builds a snapshot. Periods are de-duplicated and sorted oldest first;
// later duplicates of the same fact key replace earlier ones.
func NewFactSet(facts []Fact, periods []string) *FactSet {
	fs := &FactSet{
		facts: make(map[FactKey]Fact, len(facts)),
	}
	for _, f := range facts {
		fs.facts[f.Key()] = f
	}

	seen := make(map[string]bool, len(periods))
	for _, p := range periods {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		fs.periods = append(fs.periods, p)
	}
	sort.Strings(fs.periods)
	return fs
}

// Value returns the base value for a key in a period. Missing and
// undisclosed (nil) facts both report ok=false.
func (s *FactSet) Value(key, period string) (float64, bool) {
	if s == nil {
		return 0, false
	}
	f, ok := s.facts[FactKey{CanonicalKey: key, PeriodEnd: period}]
	if !ok || f.ValueBase == nil {
		return 0, false
	}
	return *f.ValueBase, true
}

// ValuePtr returns the base value as a pointer, nil when absent
func (s *FactSet) ValuePtr(key, period string) *float64 {
	v, ok := s.Value(key, period)
	if !ok {
		return nil
	}
	return &v
}

// ValueOrZero returns the base value, or 0 when absent
func (s *FactSet) ValueOrZero(key, period string) float64 {
	v, _ := s.Value(key, period)
	return v
}

// Periods returns the reporting periods, oldest first
func (s *FactSet) Periods() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.periods))
	copy(out, s.periods)
	return out
}

// Latest returns the most recent period, or "" when there are none
func (s *FactSet) Latest() string {
	if s == nil || len(s.periods) == 0 {
		return ""
	}
	return s.periods[len(s.periods)-1]
}

// Previous returns the period before the latest, or "" when there is only one
func (s *FactSet) Previous() string {
	if s == nil || len(s.periods) < 2 {
		return ""
	}
	return s.periods[len(s.periods)-2]
}

// Facts returns all facts sorted by canonical key then period
func (s *FactSet) Facts() []Fact {
	if s == nil {
		return nil
	}
	out := make([]Fact, 0, len(s.facts))
	for _, f := range s.facts {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CanonicalKey != out[j].CanonicalKey {
			return out[i].CanonicalKey < out[j].CanonicalKey
		}
		return out[i].PeriodEnd < out[j].PeriodEnd
	})
	return out
}

// Len returns the number of facts in the snapshot
func (s *FactSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.facts)
}

// RawStatementRow is an unparsed statement line: raw strings per period, exactly
// as they appear on the page
type RawStatementRow struct {
	CanonicalKey string            `json:"canonical_key" yaml:"canonical_key" validate:"required"`
	Values       map[string]string `json:"values" yaml:"values"` // period_end -> raw string
	SourceRefs   []SourceRef       `json:"source_refs,omitempty" yaml:"source_refs,omitempty"`
}
