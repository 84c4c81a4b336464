// internal/pricing/engine.go

// Package pricing computes material costs and allocates the RFP-level
// test-cost pool across matched lines in proportion to their material cost.
package pricing

import (
	"math"

	"rfp-proposal-engine/internal/catalog"
	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/models"
)

// reconciliationTolerance bounds the rounding drift allowed between the
// allocated test costs and the pool.
const reconciliationTolerance = 0.01

// Summary is the aggregate pricing outcome of a run.
type Summary struct {
	Lines             []models.PricingLine
	TotalMaterialCost float64
	TotalTestCost     float64
	GrandTotal        float64
}

// Engine prices matched items. It is deterministic and purely local; no
// collaborator is involved beyond the test-price lookup done by the caller.
type Engine struct {
	logger logger.Logger
}

func NewEngine(log logger.Logger) *Engine {
	return &Engine{
		logger: log.WithFields(map[string]interface{}{"component": "pricing-engine"}),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// TestPool sums the price of every required test. Tests with no known price
// contribute nothing and are logged.
func (e *Engine) TestPool(requirements []models.TestRequirement, prices map[string]float64) float64 {
	pool := 0.0
	for _, req := range requirements {
		price, ok := prices[req.Name]
		if !ok {
			e.logger.Warn("no price for required test", map[string]interface{}{
				"testName": req.Name,
			})
			continue
		}
		pool += price
	}
	return round2(pool)
}

// Price builds pricing lines for every matched item and allocates testPool
// proportionally by material-cost share. The allocation is exact after
// 2-decimal rounding: any remainder lands on the line with the highest
// material cost.
func (e *Engine) Price(rfp *models.RFP, matches []models.MatchResult, arena *catalog.Arena, testPool float64) (*Summary, error) {
	summary := &Summary{}

	itemsByID := make(map[string]*models.RequestItem, len(rfp.Items))
	for i := range rfp.Items {
		itemsByID[rfp.Items[i].ItemID] = &rfp.Items[i]
	}

	for _, match := range matches {
		if match.Status != models.MatchStatusMatched {
			continue
		}
		item, ok := itemsByID[match.ItemID]
		if !ok {
			continue
		}
		candidate, ok := arena.Get(match.ChosenSKU)
		if !ok {
			return nil, errors.NewCatalogLookupFailedError(match.ChosenSKU,
				errors.NewValidationError("chosen SKU missing from candidate arena"))
		}

		line := models.PricingLine{
			ItemID:       match.ItemID,
			SKUID:        candidate.SKUID,
			Quantity:     item.Quantity,
			UnitPrice:    candidate.UnitPrice,
			MaterialCost: round2(item.Quantity * candidate.UnitPrice),
		}
		summary.Lines = append(summary.Lines, line)
		summary.TotalMaterialCost = round2(summary.TotalMaterialCost + line.MaterialCost)
	}

	if len(summary.Lines) == 0 {
		// nothing matched: the pool stays unallocated and the proposal
		// carries no test cost
		return summary, nil
	}

	if summary.TotalMaterialCost == 0 {
		// every matched line has zero material cost: there is no allocation
		// basis, so the pool stays unallocated and TotalTestCost stays zero
		if testPool != 0 {
			e.logger.Warn("zero total material cost, test pool left unallocated", map[string]interface{}{
				"testPool": testPool,
			})
		}
	} else {
		if err := e.allocate(summary, testPool); err != nil {
			return nil, err
		}
		summary.TotalTestCost = testPool
	}

	for i := range summary.Lines {
		summary.Lines[i].TotalCost = round2(summary.Lines[i].MaterialCost + summary.Lines[i].AllocatedTestCost)
	}
	summary.GrandTotal = round2(summary.TotalMaterialCost + summary.TotalTestCost)
	return summary, nil
}

// allocate distributes the pool across lines proportionally by material-cost
// share. Callers guarantee a positive total material cost.
func (e *Engine) allocate(summary *Summary, pool float64) error {
	if pool == 0 {
		return nil
	}

	lines := summary.Lines
	allocated := 0.0
	for i := range lines {
		share := lines[i].MaterialCost / summary.TotalMaterialCost
		lines[i].AllocatedTestCost = round2(pool * share)
		allocated += lines[i].AllocatedTestCost
	}

	// pin the rounding remainder to the largest line so the sum reconciles
	remainder := round2(pool - allocated)
	if remainder != 0 {
		largest := 0
		for i := range lines {
			if lines[i].MaterialCost > lines[largest].MaterialCost {
				largest = i
			}
		}
		lines[largest].AllocatedTestCost = round2(lines[largest].AllocatedTestCost + remainder)
	}

	sum := 0.0
	for i := range lines {
		sum += lines[i].AllocatedTestCost
	}
	if math.Abs(sum-pool) > reconciliationTolerance {
		return errors.NewAllocationInvariantError(sum, pool)
	}
	return nil
}
