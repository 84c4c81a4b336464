// internal/pipeline/orchestrator.go

// Package pipeline orchestrates a proposal run end to end: load and validate
// the RFP, match every item against the catalog, price the matched lines,
// synthesize the narrative and persist the terminal result exactly once.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rfp-proposal-engine/internal/catalog"
	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/common/metrics"
	"rfp-proposal-engine/internal/common/observability"
	"rfp-proposal-engine/internal/models"
	"rfp-proposal-engine/internal/pricing"
)

// Storage is the persistence surface the orchestrator needs.
type Storage interface {
	LoadRFP(ctx context.Context, rfpID string) (*models.RFP, error)
	TestPrices(ctx context.Context, names []string) (map[string]float64, error)
	StoreProposal(ctx context.Context, result *models.ProposalResult) error
}

// Matcher matches one request item against the catalog.
type Matcher interface {
	MatchItem(ctx context.Context, item *models.RequestItem, arena *catalog.Arena) (models.MatchResult, error)
}

// Narrator renders the proposal narrative from the finished structured
// result.
type Narrator interface {
	Synthesize(ctx context.Context, rfp *models.RFP, result *models.ProposalResult) (string, error)
}

// Options tunes a run.
type Options struct {
	// MatchConcurrency bounds how many items are matched in parallel.
	MatchConcurrency int
	// StageTimeout caps each pipeline stage.
	StageTimeout time.Duration
}

// Orchestrator drives the four pipeline stages for one RFP at a time.
type Orchestrator struct {
	storage  Storage
	matcher  Matcher
	pricer   *pricing.Engine
	narrator Narrator
	obs      *observability.Observability
	tracing  *observability.Tracing
	opts     Options
	logger   logger.Logger
}

func NewOrchestrator(
	storage Storage,
	matcher Matcher,
	pricer *pricing.Engine,
	narrator Narrator,
	obs *observability.Observability,
	tracing *observability.Tracing,
	opts Options,
	log logger.Logger,
) *Orchestrator {
	if opts.MatchConcurrency < 1 {
		opts.MatchConcurrency = 1
	}
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 60 * time.Second
	}
	return &Orchestrator{
		storage:  storage,
		matcher:  matcher,
		pricer:   pricer,
		narrator: narrator,
		obs:      obs,
		tracing:  tracing,
		opts:     opts,
		logger:   log.WithFields(map[string]interface{}{"component": "orchestrator"}),
	}
}

// Run executes a full proposal run for rfpID. The returned result is always
// non-nil and already persisted unless persistence itself failed; the error
// reports why a run ended Failed.
func (o *Orchestrator) Run(ctx context.Context, rfpID string) (*models.ProposalResult, error) {
	result := &models.ProposalResult{
		RunID:  uuid.NewString(),
		RFPID:  rfpID,
		Status: models.RunStatusFailed,
	}
	metrics.PipelineRunsStarted.Inc()

	log := o.logger.WithFields(map[string]interface{}{
		"runId": result.RunID,
		"rfpId": rfpID,
	})
	log.Info("pipeline run started", nil)

	rfp, err := o.loadStage(ctx, rfpID)
	if err != nil {
		result.FailureReason = err.Error()
		o.finish(ctx, result, log)
		return result, err
	}

	arena, err := o.matchStage(ctx, rfp, result, log)
	if err != nil {
		result.FailureReason = err.Error()
		o.finish(ctx, result, log)
		return result, err
	}

	if err := o.priceStage(ctx, rfp, result, arena); err != nil {
		result.FailureReason = err.Error()
		o.finish(ctx, result, log)
		return result, err
	}

	buildProductTable(rfp, result, arena)
	o.narrativeStage(ctx, rfp, result, log)

	if result.Status == models.RunStatusFailed {
		// match stage decided the terminal status already
		result.Status = models.RunStatusComplete
	}
	o.finish(ctx, result, log)
	return result, nil
}

func (o *Orchestrator) loadStage(ctx context.Context, rfpID string) (*models.RFP, error) {
	stageCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()
	stageCtx, span := o.tracing.StartSpan(stageCtx, "pipeline.load")
	defer span.End()
	start := time.Now()

	rfp, err := o.storage.LoadRFP(stageCtx, rfpID)
	if err != nil {
		return nil, err
	}
	if err := ValidateRFP(rfp); err != nil {
		return nil, err
	}

	o.recordStage(ctx, "load", start)
	return rfp, nil
}

// matchStage runs all items through the matcher with bounded concurrency.
// Item-level collaborator failures degrade the run instead of aborting it;
// only a fully failed match stage fails the run.
func (o *Orchestrator) matchStage(ctx context.Context, rfp *models.RFP, result *models.ProposalResult, log logger.Logger) (*catalog.Arena, error) {
	stageCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()
	stageCtx, span := o.tracing.StartSpan(stageCtx, "pipeline.match")
	defer span.End()
	start := time.Now()

	arena := catalog.NewArena()
	matches := make([]models.MatchResult, len(rfp.Items))
	sem := make(chan struct{}, o.opts.MatchConcurrency)
	var wg sync.WaitGroup

	for i := range rfp.Items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			item := &rfp.Items[i]
			match, err := o.matcher.MatchItem(stageCtx, item, arena)
			if err != nil {
				log.Warn("item match failed operationally", map[string]interface{}{
					"itemId": item.ItemID,
					"error":  err.Error(),
				})
				match = models.MatchResult{
					ItemID:     item.ItemID,
					Status:     models.MatchStatusUnmatched,
					Annotation: string(errors.CodeOf(err)),
				}
				if match.Annotation == "" {
					match.Annotation = string(errors.ErrCodeUpstreamUnavailable)
				}
			}
			matches[i] = match
		}(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, errors.NewUpstreamUnavailableError("match-stage", err)
	}

	result.Matches = matches

	failed := 0
	for _, m := range matches {
		if m.Annotation != "" {
			failed++
		}
		if m.Status == models.MatchStatusMatched {
			metrics.ItemsMatched.WithLabelValues("matched").Inc()
		} else {
			metrics.ItemsMatched.WithLabelValues("unmatched").Inc()
		}
	}

	if failed == len(matches) && len(matches) > 0 {
		return nil, errors.NewPartialFailureError(failed, len(matches))
	}
	if failed > 0 {
		result.Status = models.RunStatusPartialFailure
		result.Degraded = true
	}

	o.recordStage(ctx, "match", start)
	return arena, nil
}

func (o *Orchestrator) priceStage(ctx context.Context, rfp *models.RFP, result *models.ProposalResult, arena *catalog.Arena) error {
	stageCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()
	stageCtx, span := o.tracing.StartSpan(stageCtx, "pipeline.price")
	defer span.End()
	start := time.Now()

	names := make([]string, 0, len(rfp.TestRequirements))
	for _, req := range rfp.TestRequirements {
		names = append(names, req.Name)
	}
	prices, err := o.storage.TestPrices(stageCtx, names)
	if err != nil {
		return err
	}

	pool := o.pricer.TestPool(rfp.TestRequirements, prices)
	summary, err := o.pricer.Price(rfp, result.Matches, arena, pool)
	if err != nil {
		return err
	}

	result.Lines = summary.Lines
	result.TotalMaterialCost = summary.TotalMaterialCost
	result.TotalTestCost = summary.TotalTestCost
	result.GrandTotal = summary.GrandTotal

	o.recordStage(ctx, "price", start)
	return nil
}

// narrativeStage never fails the run: a missing narrative degrades the
// proposal and the structured result stands on its own.
func (o *Orchestrator) narrativeStage(ctx context.Context, rfp *models.RFP, result *models.ProposalResult, log logger.Logger) {
	if o.narrator == nil {
		return
	}

	stageCtx, cancel := context.WithTimeout(ctx, o.opts.StageTimeout)
	defer cancel()
	stageCtx, span := o.tracing.StartSpan(stageCtx, "pipeline.narrative")
	defer span.End()
	start := time.Now()

	narrative, err := o.narrator.Synthesize(stageCtx, rfp, result)
	if err != nil {
		log.Warn("narrative synthesis failed, proposal degraded", map[string]interface{}{
			"error": err.Error(),
		})
		result.Narrative = nil
		result.Degraded = true
		return
	}

	result.Narrative = &narrative
	o.recordStage(ctx, "narrative", start)
}

// finish persists the terminal result and records run metrics. Persistence
// failures are logged; the in-memory result is still returned to the caller.
func (o *Orchestrator) finish(ctx context.Context, result *models.ProposalResult, log logger.Logger) {
	metrics.PipelineRunsCompleted.WithLabelValues(string(result.Status)).Inc()
	o.obs.RecordRun(ctx, string(result.Status))

	storeCtx, cancel := context.WithTimeout(context.Background(), o.opts.StageTimeout)
	defer cancel()
	if err := o.storage.StoreProposal(storeCtx, result); err != nil {
		log.Error("failed to persist proposal", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	log.Info("pipeline run finished", map[string]interface{}{
		"status":   string(result.Status),
		"matched":  result.MatchedCount(),
		"degraded": result.Degraded,
	})
}

func (o *Orchestrator) recordStage(ctx context.Context, stage string, start time.Time) {
	elapsed := time.Since(start)
	metrics.PipelineStageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
	o.obs.RecordStageDuration(ctx, stage, elapsed)
}

// buildProductTable renders one presentation row per request item, matched
// or not.
func buildProductTable(rfp *models.RFP, result *models.ProposalResult, arena *catalog.Arena) {
	linesByItem := make(map[string]*models.PricingLine, len(result.Lines))
	for i := range result.Lines {
		linesByItem[result.Lines[i].ItemID] = &result.Lines[i]
	}
	matchesByItem := make(map[string]*models.MatchResult, len(result.Matches))
	for i := range result.Matches {
		matchesByItem[result.Matches[i].ItemID] = &result.Matches[i]
	}

	rows := make([]models.ProductTableRow, 0, len(rfp.Items))
	for _, item := range rfp.Items {
		row := models.ProductTableRow{
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
			Status:   string(models.MatchStatusUnmatched),
		}
		if match, ok := matchesByItem[item.ItemID]; ok {
			row.Status = string(match.Status)
			row.SpecMatch = match.FinalScore
			row.AnnotationCode = match.Annotation
			if c, found := arena.Get(match.ChosenSKU); found {
				row.SKUID = c.SKUID
				row.ProductName = c.ProductName
				row.UnitPrice = c.UnitPrice
			}
		}
		if line, ok := linesByItem[item.ItemID]; ok {
			row.TotalCost = line.TotalCost
		}
		rows = append(rows, row)
	}
	result.ProductTable = rows
}
