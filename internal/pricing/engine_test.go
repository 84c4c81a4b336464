// internal/pricing/engine_test.go
package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfp-proposal-engine/internal/catalog"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/models"
)

func pricingFixture() (*models.RFP, []models.MatchResult, *catalog.Arena) {
	rfp := &models.RFP{
		RFPID: "RFP-1",
		Items: []models.RequestItem{
			{ItemID: "ITEM-1", Quantity: 10, Unit: "m"},
			{ItemID: "ITEM-2", Quantity: 20, Unit: "m"},
			{ItemID: "ITEM-3", Quantity: 30, Unit: "m"},
		},
	}
	arena := catalog.NewArena()
	arena.Add([]models.Candidate{
		{SKUID: "SKU-1", UnitPrice: 10},
		{SKUID: "SKU-2", UnitPrice: 10},
		{SKUID: "SKU-3", UnitPrice: 10},
	})
	matches := []models.MatchResult{
		{ItemID: "ITEM-1", ChosenSKU: "SKU-1", Status: models.MatchStatusMatched},
		{ItemID: "ITEM-2", ChosenSKU: "SKU-2", Status: models.MatchStatusMatched},
		{ItemID: "ITEM-3", ChosenSKU: "SKU-3", Status: models.MatchStatusMatched},
	}
	return rfp, matches, arena
}

func TestPrice_ProportionalAllocation(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t))
	rfp, matches, arena := pricingFixture()

	// material costs 100, 200, 300; pool 60 allocates 10, 20, 30
	summary, err := engine.Price(rfp, matches, arena, 60)
	require.NoError(t, err)

	require.Len(t, summary.Lines, 3)
	assert.Equal(t, 100.0, summary.Lines[0].MaterialCost)
	assert.Equal(t, 10.0, summary.Lines[0].AllocatedTestCost)
	assert.Equal(t, 20.0, summary.Lines[1].AllocatedTestCost)
	assert.Equal(t, 30.0, summary.Lines[2].AllocatedTestCost)
	assert.Equal(t, 110.0, summary.Lines[0].TotalCost)
	assert.Equal(t, 600.0, summary.TotalMaterialCost)
	assert.Equal(t, 60.0, summary.TotalTestCost)
	assert.Equal(t, 660.0, summary.GrandTotal)
}

func TestPrice_RemainderGoesToLargestLine(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t))
	rfp, matches, arena := pricingFixture()

	// 100/600, 200/600, 300/600 of 100.00 rounds to 16.67+33.33+50.00
	summary, err := engine.Price(rfp, matches, arena, 100)
	require.NoError(t, err)

	sum := 0.0
	for _, line := range summary.Lines {
		sum += line.AllocatedTestCost
	}
	assert.InDelta(t, 100.0, sum, 0.001)
	// any rounding drift is carried by the highest-material-cost line
	assert.Equal(t, 16.67, summary.Lines[0].AllocatedTestCost)
	assert.Equal(t, 33.33, summary.Lines[1].AllocatedTestCost)
	assert.Equal(t, 50.0, summary.Lines[2].AllocatedTestCost)
}

func TestPrice_UnmatchedItemsExcluded(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t))
	rfp, matches, arena := pricingFixture()
	matches[1].Status = models.MatchStatusUnmatched
	matches[1].ChosenSKU = ""

	summary, err := engine.Price(rfp, matches, arena, 40)
	require.NoError(t, err)

	require.Len(t, summary.Lines, 2)
	// shares recomputed over matched lines only: 100/400 and 300/400
	assert.Equal(t, 10.0, summary.Lines[0].AllocatedTestCost)
	assert.Equal(t, 30.0, summary.Lines[1].AllocatedTestCost)
}

func TestPrice_NothingMatched(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t))
	rfp, matches, arena := pricingFixture()
	for i := range matches {
		matches[i].Status = models.MatchStatusUnmatched
		matches[i].ChosenSKU = ""
	}

	summary, err := engine.Price(rfp, matches, arena, 60)
	require.NoError(t, err)

	assert.Empty(t, summary.Lines)
	assert.Zero(t, summary.TotalMaterialCost)
	assert.Zero(t, summary.TotalTestCost)
	assert.Zero(t, summary.GrandTotal)
}

func TestPrice_ZeroMaterialCostLeavesPoolUnallocated(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t))

	// a lone matched item at unit price zero gives no allocation basis
	rfp := &models.RFP{
		RFPID: "RFP-1",
		Items: []models.RequestItem{{ItemID: "ITEM-1", Quantity: 10, Unit: "m"}},
	}
	arena := catalog.NewArena()
	arena.Add([]models.Candidate{{SKUID: "SKU-1", UnitPrice: 0}})
	matches := []models.MatchResult{
		{ItemID: "ITEM-1", ChosenSKU: "SKU-1", Status: models.MatchStatusMatched},
	}

	summary, err := engine.Price(rfp, matches, arena, 60)
	require.NoError(t, err)

	require.Len(t, summary.Lines, 1)
	assert.Zero(t, summary.Lines[0].MaterialCost)
	assert.Zero(t, summary.Lines[0].AllocatedTestCost)
	assert.Zero(t, summary.Lines[0].TotalCost)
	assert.Zero(t, summary.TotalTestCost)
	assert.Zero(t, summary.GrandTotal)
}

func TestPrice_ZeroMaterialCostAcrossAllLines(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t))
	rfp, matches, _ := pricingFixture()
	arena := catalog.NewArena()
	arena.Add([]models.Candidate{
		{SKUID: "SKU-1", UnitPrice: 0},
		{SKUID: "SKU-2", UnitPrice: 0},
		{SKUID: "SKU-3", UnitPrice: 0},
	})

	summary, err := engine.Price(rfp, matches, arena, 30)
	require.NoError(t, err)

	require.Len(t, summary.Lines, 3)
	for _, line := range summary.Lines {
		assert.Zero(t, line.AllocatedTestCost)
	}
	assert.Zero(t, summary.TotalTestCost)
	assert.Zero(t, summary.GrandTotal)
}

func TestPrice_ChosenSKUMissingFromArena(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t))
	rfp, matches, _ := pricingFixture()

	_, err := engine.Price(rfp, matches, catalog.NewArena(), 60)
	require.Error(t, err)
}

func TestTestPool(t *testing.T) {
	engine := NewEngine(logger.NewTestLogger(t))

	requirements := []models.TestRequirement{
		{Name: "Routine Test"},
		{Name: "Type Test"},
		{Name: "Unpriced Special Test"},
	}
	prices := map[string]float64{
		"Routine Test": 1500.0,
		"Type Test":    4500.0,
	}

	// unpriced tests contribute nothing
	assert.Equal(t, 6000.0, engine.TestPool(requirements, prices))
	assert.Zero(t, engine.TestPool(nil, prices))
}
