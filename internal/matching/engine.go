// internal/matching/engine.go
package matching

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"rfp-proposal-engine/internal/catalog"
	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/llm"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/common/metrics"
	"rfp-proposal-engine/internal/common/retry"
	"rfp-proposal-engine/internal/models"
)

// Options tunes one engine instance. Zero values are not usable; callers
// build Options from the pipeline configuration.
type Options struct {
	TopK                int
	AcceptanceThreshold float64
	NumericTolerance    float64
	RerankEnabled       bool
	RerankTopN          int
}

// Engine runs the spec-match stage for a single request item: build the
// query, retrieve candidates, score them deterministically and optionally
// re-rank the eligible head with the language model.
type Engine struct {
	embedder llm.Embedder
	searcher catalog.Searcher
	cache    *catalog.EmbeddingCache
	scorer   *Scorer
	reranker *Reranker
	opts     Options
	policy   retry.Policy
	logger   logger.Logger
}

func NewEngine(
	embedder llm.Embedder,
	searcher catalog.Searcher,
	cache *catalog.EmbeddingCache,
	reranker *Reranker,
	opts Options,
	log logger.Logger,
) *Engine {
	policy := retry.DefaultPolicy
	policy.Retryable = errors.IsRetryable
	return &Engine{
		embedder: embedder,
		searcher: searcher,
		cache:    cache,
		scorer:   NewScorer(opts.NumericTolerance),
		reranker: reranker,
		opts:     opts,
		policy:   policy,
		logger:   log.WithFields(map[string]interface{}{"component": "match-engine"}),
	}
}

// BuildQuery renders the retrieval query text for an item: the free-text
// description followed by one "name: value" line per required spec.
func BuildQuery(item *models.RequestItem) string {
	var sb strings.Builder
	sb.WriteString(item.Description)
	for _, spec := range item.Specs {
		fmt.Fprintf(&sb, "\n%s: %s", spec.Name, spec.Value)
	}
	return sb.String()
}

// MatchItem matches one request item against the catalog. Candidates seen
// along the way are registered in the arena. A non-nil error means a
// collaborator stayed unavailable through retries; technical non-fit is not
// an error but an Unmatched result.
func (e *Engine) MatchItem(ctx context.Context, item *models.RequestItem, arena *catalog.Arena) (models.MatchResult, error) {
	result := models.MatchResult{
		ItemID: item.ItemID,
		Status: models.MatchStatusUnmatched,
	}

	query := BuildQuery(item)

	vector, err := e.embed(ctx, query)
	if err != nil {
		return result, errors.NewUpstreamUnavailableError("embedding", err)
	}

	candidates, err := e.search(ctx, vector)
	if err != nil {
		return result, errors.NewUpstreamUnavailableError("vector-search", err)
	}

	if len(candidates) == 0 {
		e.logger.Info("no candidates retrieved", map[string]interface{}{
			"itemId": item.ItemID,
		})
		return result, nil
	}
	arena.Add(candidates)

	ranked, breakdowns := e.rank(item, candidates, arena)
	result.Ranked = ranked

	eligible := 0
	for _, sc := range ranked {
		if sc.Score < e.opts.AcceptanceThreshold {
			break
		}
		eligible++
	}

	if e.opts.RerankEnabled && eligible >= 2 {
		topN := eligible
		if e.opts.RerankTopN > 0 && e.opts.RerankTopN < topN {
			topN = e.opts.RerankTopN
		}
		result.Ranked = e.reranker.Rerank(ctx, item, ranked, arena, topN)
	}

	best := result.Ranked[0]
	result.Breakdown = breakdowns[best.SKUID]
	result.FinalScore = best.Score
	if best.Score >= e.opts.AcceptanceThreshold {
		result.ChosenSKU = best.SKUID
		result.Status = models.MatchStatusMatched
	}

	e.logger.Info("item matched", map[string]interface{}{
		"itemId":     item.ItemID,
		"status":     string(result.Status),
		"finalScore": result.FinalScore,
		"candidates": len(candidates),
	})
	return result, nil
}

func (e *Engine) embed(ctx context.Context, query string) ([]float32, error) {
	if vector, ok := e.cache.Get(ctx, query); ok {
		return vector, nil
	}

	var vector []float32
	attempt := 0
	err := e.policy.Do(ctx, "embed-query", func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.CollaboratorRetries.WithLabelValues("embedding").Inc()
		}
		var err error
		vector, err = e.embedder.Embed(ctx, query)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.cache.Put(ctx, query, vector)
	return vector, nil
}

func (e *Engine) search(ctx context.Context, vector []float32) ([]models.Candidate, error) {
	var candidates []models.Candidate
	attempt := 0
	err := e.policy.Do(ctx, "vector-search", func(ctx context.Context) error {
		attempt++
		if attempt > 1 {
			metrics.CollaboratorRetries.WithLabelValues("vector-search").Inc()
		}
		var err error
		candidates, err = e.searcher.SearchCandidates(ctx, vector, e.opts.TopK)
		return err
	})
	return candidates, err
}

// rank scores every candidate and sorts by score descending, breaking ties
// by unit price ascending and then SKU id ascending so equal inputs always
// produce the same order.
func (e *Engine) rank(item *models.RequestItem, candidates []models.Candidate, arena *catalog.Arena) ([]models.ScoredCandidate, map[string][]models.AttributeScore) {
	ranked := make([]models.ScoredCandidate, 0, len(candidates))
	breakdowns := make(map[string][]models.AttributeScore, len(candidates))

	for i := range candidates {
		score, breakdown := e.scorer.ScoreCandidate(item, &candidates[i])
		ranked = append(ranked, models.ScoredCandidate{SKUID: candidates[i].SKUID, Score: score})
		breakdowns[candidates[i].SKUID] = breakdown
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		ci, _ := arena.Get(ranked[i].SKUID)
		cj, _ := arena.Get(ranked[j].SKUID)
		if ci.UnitPrice != cj.UnitPrice {
			return ci.UnitPrice < cj.UnitPrice
		}
		return ranked[i].SKUID < ranked[j].SKUID
	})

	return ranked, breakdowns
}
