// Package analysis runs the full rating pipeline for one request: taxonomy
// admission, the validation gate, the section, stress, covenant and risk engines,
// then aggregation, governance, recommendation, credit-risk quantification and provenance.
package analysis

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"github.com/ternarybob/creditcore/internal/common"
	"github.com/ternarybob/creditcore/internal/interfaces"
	"github.com/ternarybob/creditcore/internal/models"
	"github.com/ternarybob/creditcore/internal/services/cache"
	"github.com/ternarybob/creditcore/internal/services/creditrisk"
	"github.com/ternarybob/creditcore/internal/services/provenance"
	"github.com/ternarybob/creditcore/internal/services/rating"
	"github.com/ternarybob/creditcore/internal/services/recommendation"
	"github.com/ternarybob/creditcore/internal/services/request"
	"github.com/ternarybob/creditcore/internal/services/risk"
	"github.com/ternarybob/creditcore/internal/services/sections"
	"github.com/ternarybob/creditcore/internal/services/stress"
	"github.com/ternarybob/creditcore/internal/services/taxonomy"
	"github.com/ternarybob/creditcore/internal/services/validation"
)

// TaskRiskClassification is the semantic cache task name for note classification
const TaskRiskClassification = "risk_classification"

// Options configures the analysis service
type Options struct {
	Taxonomy   *taxonomy.Taxonomy // Required
	Tolerances validation.TolerancePolicy
	Weights    rating.Weights     // Nil uses rating.DefaultWeights
	PDBands    creditrisk.PDBands // Nil uses creditrisk.DefaultPDBands
	Versions   models.Versions
	Cache      interfaces.SemanticCache // Nil disables caching
	Registerer prometheus.Registerer    // Nil leaves pipeline metrics unregistered
}

// Service runs analyses. It holds only immutable configuration and is safe for concurrent use.
type Service struct {
	taxonomy *taxonomy.Taxonomy
	gate     *validation.Gate
	weights  rating.Weights
	bands    creditrisk.PDBands
	versions models.Versions
	cache    interfaces.SemanticCache
	metrics  *pipelineMetrics
	logger   arbor.ILogger
}

// NewService validates the configuration and builds the service.
// Invalid weights, PD bands or a missing taxonomy return a *models.ConfigurationError.
func NewService(opts Options, logger arbor.ILogger) (*Service, error) {
	if opts.Taxonomy == nil {
		return nil, models.NewConfigurationError("taxonomy", "taxonomy is required")
	}
	if opts.Weights == nil {
		opts.Weights = rating.DefaultWeights()
	}
	if err := opts.Weights.Validate(); err != nil {
		return nil, err
	}
	if opts.PDBands == nil {
		opts.PDBands = creditrisk.DefaultPDBands()
	}
	if err := opts.PDBands.Validate(); err != nil {
		return nil, err
	}
	if opts.Tolerances.Balance < 0 || opts.Tolerances.Subtotal < 0 {
		return nil, models.NewConfigurationError("validation", "tolerances must not be negative")
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNoop()
	}

	return &Service{
		taxonomy: opts.Taxonomy,
		gate:     validation.NewGate(logger, opts.Tolerances),
		weights:  opts.Weights,
		bands:    opts.PDBands,
		versions: opts.Versions,
		cache:    opts.Cache,
		metrics:  newPipelineMetrics(opts.Registerer),
		logger:   logger,
	}, nil
}

// Analyze runs the pipeline. When the validation gate fails, the returned result
// has status FAIL with the itemized failures and the error wraps models.ErrValidationFailed.
func (s *Service) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.duration.Observe(time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		s.metrics.runs.WithLabelValues("ERROR").Inc()
		return nil, err
	}
	if err := request.Validate(req); err != nil {
		s.metrics.runs.WithLabelValues("ERROR").Inc()
		return nil, err
	}

	admitted, rejected := s.taxonomy.Admit(request.Facts(req))
	fs := models.NewFactSet(admitted, req.Periods)
	notes := models.NotesFromMap(req.Notes)

	result := &models.AnalysisResult{
		AnalysisID:   s.analysisID(req),
		CompanyName:  req.CompanyName,
		Periods:      fs.Periods(),
		RejectedKeys: rejected,
		Versions:     s.versions,
	}

	result.Validation = s.gate.Run(fs, rejected)
	result.Status = result.Validation.Status
	if !result.Validation.Passed() {
		s.metrics.runs.WithLabelValues(string(models.StatusFail)).Inc()
		s.logger.Warn().
			Str("analysis_id", result.AnalysisID).
			Int("failures", len(result.Validation.Failures)).
			Msg("Validation gate failed, section scoring skipped")
		return result, fmt.Errorf("%w: %d failure(s)", models.ErrValidationFailed, len(result.Validation.Failures))
	}

	out, err := s.runEngines(ctx, sections.Input{
		Facts:               fs,
		Notes:               notes,
		CommittedFacilities: req.CommittedFacilities,
	})
	if err != nil {
		s.metrics.runs.WithLabelValues("ERROR").Inc()
		return nil, err
	}

	blocks := out.blocks()
	result.SectionBlocks = blocks
	result.Stress = &out.stress
	result.Risk = &out.risk

	leverage := out.weighted[models.SectionLeverage]
	var leverageScore *float64
	var levMetrics models.Metrics
	if leverage != nil {
		leverageScore = common.Float64Ptr(leverage.Score)
		levMetrics = leverage.KeyMetrics
	}

	aggregation := rating.Rate(blocks, s.weights, rating.GovernanceInputs{
		LeverageScore:    leverageScore,
		NetDebtToEbitda:  levMetrics.Ptr("net_debt_to_ebitda_incl_leases"),
		EbitdaToInterest: levMetrics.Ptr("ebitda_to_interest"),
		CovenantFlags:    out.covenants.Block.RiskFlags,
		Notes:            notes,
		StressScenarios:  out.stress.Scenarios,
	})
	result.Aggregation = &aggregation
	s.metrics.governanceRules.Add(float64(len(aggregation.GovernanceRules)))

	metrics := sections.ComputeMetrics(fs)
	latest := latestMetrics(metrics, fs.Latest())

	var liqMetrics models.Metrics
	if liq := out.weighted[models.SectionLiquidity]; liq != nil {
		liqMetrics = liq.KeyMetrics
	}

	rec := recommendation.Recommend(recommendation.Inputs{
		NetDebtToEbitda:     firstPresent(latest.Ptr("net_debt_to_ebitda"), levMetrics.Ptr("net_debt_to_ebitda_incl_leases")),
		InterestCover:       firstPresent(latest.Ptr("interest_cover"), levMetrics.Ptr("ebitda_to_interest")),
		CurrentRatio:        firstPresent(latest.Ptr("current_ratio"), liqMetrics.Ptr("current_ratio")),
		STDebtToCash:        liqMetrics.Ptr("st_debt_to_cash"),
		LeverageBreach:      out.covenants.LeverageBreach,
		InterestCoverBreach: out.covenants.InterestCoverBreach,
		StressBreaches:      out.stress.Breaches,
	})
	result.Recommendation = &rec

	cr := creditrisk.Quantify(creditrisk.Inputs{
		Facts:          fs,
		Grade:          aggregation.RatingGrade,
		Bands:          s.bands,
		Undrawn:        out.covenants.Block.KeyMetrics.Ptr("undrawn_facilities"),
		CovenantBreach: out.covenants.Breached(),
	})
	result.CreditRisk = &cr

	result.Provenance = provenance.Build(fs, metrics, blocks)

	s.metrics.runs.WithLabelValues(string(result.Status)).Inc()
	s.logger.Info().
		Str("analysis_id", result.AnalysisID).
		Str("status", string(result.Status)).
		Str("base_grade", string(aggregation.BaseGrade)).
		Str("rating_grade", string(aggregation.RatingGrade)).
		Str("recommendation", string(rec.Label)).
		Dur("elapsed", time.Since(start)).
		Msg("Analysis complete")

	return result, nil
}

// engineOutputs holds every engine's private output. Each slot is written by exactly one task.
type engineOutputs struct {
	weighted  map[models.SectionKey]*models.SectionBlock
	stress    models.StressResult
	covenants sections.CovenantResult
	risk      models.RiskResult
}

// blocks merges the weighted blocks with the governance-only stress and covenant blocks
func (o *engineOutputs) blocks() map[models.SectionKey]*models.SectionBlock {
	out := make(map[models.SectionKey]*models.SectionBlock, len(o.weighted)+2)
	for k, b := range o.weighted {
		out[k] = b
	}
	out[models.SectionStress] = stress.Section(o.stress)
	out[models.SectionCovenants] = o.covenants.Block
	return out
}

// runEngines fans the independent engines out and joins before returning.
// Engines only read in; each writes its own slot.
func (s *Service) runEngines(ctx context.Context, in sections.Input) (*engineOutputs, error) {
	engines := sections.WeightedEngines()
	slots := make([]*models.SectionBlock, len(rating.WeightedSections))
	out := &engineOutputs{}

	g, gctx := errgroup.WithContext(ctx)
	spawn := func(name string, fn func() error) {
		g.Go(common.Guard(s.logger, name, func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := fn(); err != nil {
				s.metrics.engineFailures.WithLabelValues(name).Inc()
				return err
			}
			return nil
		}))
	}

	for i, key := range rating.WeightedSections {
		i, engine := i, engines[key]
		spawn(string(key), func() error {
			slots[i] = engine(in)
			return nil
		})
	}
	spawn(string(models.SectionStress), func() error {
		out.stress = stress.Run(in.Facts)
		return nil
	})
	spawn(string(models.SectionCovenants), func() error {
		out.covenants = sections.Covenants(in)
		return nil
	})
	spawn("risk", func() error {
		out.risk = risk.AnalyzeWith(in.Notes, in.Facts, s.cachedClassifier(gctx))
		return nil
	})

	if err := g.Wait(); err != nil {
		var pe *common.PanicError
		if errors.As(err, &pe) {
			s.metrics.engineFailures.WithLabelValues(pe.Task).Inc()
		}
		return nil, fmt.Errorf("engine run failed: %w", err)
	}

	out.weighted = make(map[models.SectionKey]*models.SectionBlock, len(slots))
	for i, key := range rating.WeightedSections {
		if slots[i] != nil {
			out.weighted[key] = slots[i]
		}
	}
	return out, nil
}

// classification is the cached form of one note's risk classification
type classification struct {
	Item    models.RiskItem `json:"item"`
	Matched bool            `json:"matched"`
}

// classificationInput is the cache payload: only what the classifier reads
type classificationInput struct {
	NoteID string `json:"note_id"`
	Text   string `json:"text"`
}

// cachedClassifier memoizes risk.Classify per note through the semantic cache
func (s *Service) cachedClassifier(ctx context.Context) risk.ClassifyFunc {
	return func(n models.Note) (models.RiskItem, bool) {
		payload := classificationInput{NoteID: n.ID, Text: n.TextPrefix(risk.NoteScanLimit)}

		if raw, ok := s.cache.Get(ctx, TaskRiskClassification, payload); ok {
			var c classification
			if err := json.Unmarshal(raw, &c); err == nil {
				return c.Item, c.Matched
			}
		}

		item, matched := risk.Classify(n)
		s.cache.Put(ctx, TaskRiskClassification, payload, classification{Item: item, Matched: matched})
		return item, matched
	}
}

// analysisID fingerprints the request and version stamp. Facts, raw rows and
// periods are sorted first because their order does not change the analysis;
// encoding/json already writes map keys sorted.
func (s *Service) analysisID(req *models.AnalysisRequest) string {
	canonical := *req
	canonical.Periods = slices.Sorted(slices.Values(req.Periods))
	canonical.Facts = slices.Clone(req.Facts)
	// stable so a later duplicate still overrides an earlier one
	slices.SortStableFunc(canonical.Facts, func(a, b models.Fact) int {
		return cmp.Or(
			cmp.Compare(a.CanonicalKey, b.CanonicalKey),
			cmp.Compare(a.PeriodEnd, b.PeriodEnd),
		)
	})
	canonical.RawStatements = slices.Clone(req.RawStatements)
	slices.SortStableFunc(canonical.RawStatements, func(a, b models.RawStatementRow) int {
		return cmp.Compare(a.CanonicalKey, b.CanonicalKey)
	})

	fingerprint, err := json.Marshal(struct {
		Request  *models.AnalysisRequest `json:"request"`
		Versions models.Versions         `json:"versions"`
	}{&canonical, s.versions})
	if err != nil {
		fingerprint = []byte(req.CompanyName)
	}
	return common.NewAnalysisID(fingerprint)
}

// latestMetrics indexes the derived metrics of one period by key
func latestMetrics(metrics []models.Metric, period string) models.Metrics {
	out := make(models.Metrics)
	for _, m := range metrics {
		if m.PeriodEnd == period {
			v := m.Value
			out[m.MetricKey] = &v
		}
	}
	return out
}

// firstPresent returns the first non-nil, non-zero value
func firstPresent(values ...*float64) *float64 {
	for _, v := range values {
		if v != nil && *v != 0 {
			return v
		}
	}
	return nil
}
