// Package provenance assembles the audit trail attached to an analysis result.
package provenance

import (
	"sort"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/models"
)

// Output bounds
const (
	MaxFacts         = 200
	MaxMetrics       = 200
	MaxEvidenceNotes = 10
)

// Build cites the facts and metrics behind a result and what each section drew on.
// Facts and metrics are sorted by key then period before truncation, so the
// output is identical for identical inputs.
func Build(fs *models.FactSet, metrics []models.Metric, blocks map[models.SectionKey]*models.SectionBlock) *models.Provenance {
	return &models.Provenance{
		Facts:            Facts(fs),
		Metrics:          Metrics(metrics),
		SectionCitations: Citations(blocks),
	}
}

// Facts lists disclosed facts rounded to 2 decimals. Undisclosed facts are omitted.
func Facts(fs *models.FactSet) []models.FactProvenance {
	out := []models.FactProvenance{}
	for _, f := range fs.Facts() {
		if f.ValueBase == nil {
			continue
		}
		refs := f.SourceRefs
		if refs == nil {
			refs = []models.SourceRef{}
		}
		out = append(out, models.FactProvenance{
			CanonicalKey: f.CanonicalKey,
			PeriodEnd:    f.PeriodEnd,
			ValueBase:    common.Round(*f.ValueBase, 2),
			SourceRefs:   refs,
		})
		if len(out) == MaxFacts {
			break
		}
	}
	return out
}

// Metrics copies metrics rounded to 4 decimals, sorted by metric key then period
func Metrics(metrics []models.Metric) []models.Metric {
	out := make([]models.Metric, 0, len(metrics))
	for _, m := range metrics {
		trace := m.CalcTrace
		if trace == nil {
			trace = []string{}
		}
		out = append(out, models.Metric{
			MetricKey: m.MetricKey,
			PeriodEnd: m.PeriodEnd,
			Value:     common.Round(m.Value, 4),
			CalcTrace: trace,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MetricKey != out[j].MetricKey {
			return out[i].MetricKey < out[j].MetricKey
		}
		return out[i].PeriodEnd < out[j].PeriodEnd
	})
	if len(out) > MaxMetrics {
		out = out[:MaxMetrics]
	}
	return out
}

// Citations lists each block's metric names (sorted) and its first evidence notes
func Citations(blocks map[models.SectionKey]*models.SectionBlock) map[models.SectionKey]models.SectionCitation {
	out := make(map[models.SectionKey]models.SectionCitation, len(blocks))
	for key, b := range blocks {
		if b == nil {
			continue
		}
		names := make([]string, 0, len(b.KeyMetrics))
		for name := range b.KeyMetrics {
			names = append(names, name)
		}
		sort.Strings(names)

		evidence := b.EvidenceNotes
		if len(evidence) > MaxEvidenceNotes {
			evidence = evidence[:MaxEvidenceNotes]
		}
		out[key] = models.SectionCitation{
			MetricKeys:    names,
			EvidenceNotes: append([]string{}, evidence...),
		}
	}
	return out
}
