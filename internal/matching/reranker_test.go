// internal/matching/reranker_test.go
package matching

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfp-proposal-engine/internal/catalog"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/models"
)

type fakeCompleter struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func rerankFixture() (*models.RequestItem, []models.ScoredCandidate, *catalog.Arena) {
	item := &models.RequestItem{
		ItemID:      "ITEM-1",
		Description: "11kV XLPE cable",
		Specs: []models.SpecRequirement{
			{Name: "voltage", Value: "11kV", Tolerance: models.ToleranceNumeric},
		},
	}
	arena := catalog.NewArena()
	arena.Add([]models.Candidate{
		{SKUID: "SKU-A", ProductName: "Cable A", Attributes: map[string]string{"voltage": "11kV"}},
		{SKUID: "SKU-B", ProductName: "Cable B", Attributes: map[string]string{"voltage": "11kV"}},
		{SKUID: "SKU-C", ProductName: "Cable C", Attributes: map[string]string{"voltage": "12kV"}},
	})
	ranked := []models.ScoredCandidate{
		{SKUID: "SKU-A", Score: 100},
		{SKUID: "SKU-B", Score: 100},
		{SKUID: "SKU-C", Score: 80},
	}
	return item, ranked, arena
}

func TestRerank_AppliesModelOrder(t *testing.T) {
	item, ranked, arena := rerankFixture()
	completer := &fakeCompleter{response: "1, 0"}
	r := NewReranker(completer, logger.NewTestLogger(t))

	got := r.Rerank(context.Background(), item, ranked, arena, 2)

	require.Len(t, got, 3)
	assert.Equal(t, "SKU-B", got[0].SKUID)
	assert.Equal(t, "SKU-A", got[1].SKUID)
	// tail beyond topN keeps its position
	assert.Equal(t, "SKU-C", got[2].SKUID)
	// deterministic scores never change
	assert.Equal(t, 100.0, got[0].Score)
}

func TestRerank_ModelFailureKeepsOrder(t *testing.T) {
	item, ranked, arena := rerankFixture()
	completer := &fakeCompleter{err: assert.AnError}
	r := NewReranker(completer, logger.NewTestLogger(t))

	got := r.Rerank(context.Background(), item, ranked, arena, 2)
	assert.Equal(t, ranked, got)
}

func TestRerank_UnparseableResponseKeepsOrder(t *testing.T) {
	item, ranked, arena := rerankFixture()
	completer := &fakeCompleter{response: "the best candidate is clearly the first"}
	r := NewReranker(completer, logger.NewTestLogger(t))

	got := r.Rerank(context.Background(), item, ranked, arena, 2)
	// "first" has no digits; response yields no permutation
	assert.Equal(t, ranked, got)
}

func TestRerank_SingleCandidateSkipsModel(t *testing.T) {
	item, _, arena := rerankFixture()
	completer := &fakeCompleter{response: "0"}
	r := NewReranker(completer, logger.NewTestLogger(t))

	ranked := []models.ScoredCandidate{{SKUID: "SKU-A", Score: 100}}
	got := r.Rerank(context.Background(), item, ranked, arena, 2)

	assert.Equal(t, ranked, got)
	assert.Empty(t, completer.prompts)
}

func TestParseIndices(t *testing.T) {
	tests := []struct {
		name     string
		response string
		n        int
		want     []int
	}{
		{"clean list", "2, 0, 1", 3, []int{2, 0, 1}},
		{"prose around indices", "Best order: [1] then [0].", 2, []int{1, 0}},
		{"duplicates rejected", "0, 0, 1", 3, nil},
		{"out of range ignored, incomplete", "5, 1", 2, nil},
		{"extra indices truncated", "1, 0, 2, 3", 2, []int{1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseIndices(tt.response, tt.n))
		})
	}
}
