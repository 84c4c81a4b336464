// internal/matching/reranker.go
package matching

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"rfp-proposal-engine/internal/catalog"
	"rfp-proposal-engine/internal/common/llm"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/models"
)

var indexPattern = regexp.MustCompile(`\d+`)

// Reranker asks the language model to reorder the top candidates of an item
// by holistic fit. It only permutes the order handed to it; deterministic
// scores are never altered, and any model failure falls back to the original
// order.
type Reranker struct {
	completer llm.Completer
	logger    logger.Logger
}

func NewReranker(completer llm.Completer, log logger.Logger) *Reranker {
	return &Reranker{
		completer: completer,
		logger:    log.WithFields(map[string]interface{}{"component": "reranker"}),
	}
}

// Rerank reorders ranked (already sorted by deterministic score) using the
// model's preference. Only the first topN entries are eligible; the tail
// keeps its order.
func (r *Reranker) Rerank(ctx context.Context, item *models.RequestItem, ranked []models.ScoredCandidate, arena *catalog.Arena, topN int) []models.ScoredCandidate {
	if r == nil || r.completer == nil || len(ranked) < 2 {
		return ranked
	}
	if topN > len(ranked) {
		topN = len(ranked)
	}
	if topN < 2 {
		return ranked
	}

	head := ranked[:topN]
	prompt := r.buildPrompt(item, head, arena)

	response, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		r.logger.Warn("rerank failed, keeping deterministic order", map[string]interface{}{
			"itemId": item.ItemID,
			"error":  err.Error(),
		})
		return ranked
	}

	order := parseIndices(response, topN)
	if order == nil {
		r.logger.Warn("rerank response unparseable, keeping deterministic order", map[string]interface{}{
			"itemId": item.ItemID,
		})
		return ranked
	}

	result := make([]models.ScoredCandidate, 0, len(ranked))
	for _, idx := range order {
		result = append(result, head[idx])
	}
	result = append(result, ranked[topN:]...)
	return result
}

func (r *Reranker) buildPrompt(item *models.RequestItem, head []models.ScoredCandidate, arena *catalog.Arena) string {
	var sb strings.Builder
	sb.WriteString("You are ranking catalog products for a procurement request item.\n\n")
	sb.WriteString("Request item: ")
	sb.WriteString(item.Description)
	sb.WriteString("\nRequired specifications:\n")
	for _, spec := range item.Specs {
		fmt.Fprintf(&sb, "- %s: %s\n", spec.Name, spec.Value)
	}

	sb.WriteString("\nCandidates:\n")
	for i, sc := range head {
		c, ok := arena.Get(sc.SKUID)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "[%d] %s", i, c.ProductName)
		for name, value := range c.Attributes {
			fmt.Fprintf(&sb, "; %s: %s", name, value)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nReturn the candidate indices from best to worst fit as a comma-separated list, e.g. \"2, 0, 1\". Return exactly %d indices and nothing else.\n", len(head))
	return sb.String()
}

// parseIndices extracts a permutation of [0, n) from the model response.
// Returns nil when the response is not a complete, duplicate-free
// permutation.
func parseIndices(response string, n int) []int {
	matches := indexPattern.FindAllString(response, -1)
	seen := make(map[int]bool, n)
	order := make([]int, 0, n)
	for _, m := range matches {
		idx, err := strconv.Atoi(m)
		if err != nil || idx < 0 || idx >= n || seen[idx] {
			continue
		}
		seen[idx] = true
		order = append(order, idx)
		if len(order) == n {
			break
		}
	}
	if len(order) != n {
		return nil
	}
	return order
}
