// internal/models/proposal.go
package models

// MatchStatus is the terminal per-item outcome of the spec-match stage.
type MatchStatus string

const (
	MatchStatusMatched   MatchStatus = "Matched"
	MatchStatusUnmatched MatchStatus = "Unmatched"
)

// RunStatus is the terminal outcome of a pipeline run.
type RunStatus string

const (
	RunStatusComplete       RunStatus = "Complete"
	RunStatusPartialFailure RunStatus = "PartialFailure"
	RunStatusFailed         RunStatus = "Failed"
)

// AttributeScore is the per-attribute breakdown of a match.
type AttributeScore struct {
	SpecName       string  `json:"specName"`
	RequiredValue  string  `json:"requiredValue"`
	CandidateValue string  `json:"candidateValue"`
	Score          float64 `json:"score"`
	MatchType      string  `json:"matchType"`
}

// ScoredCandidate pairs a candidate id with its deterministic item-level
// score. Results carry ids, not candidate objects; the catalog arena resolves
// them.
type ScoredCandidate struct {
	SKUID string  `json:"skuId"`
	Score float64 `json:"score"`
}

// MatchResult is the spec-match outcome for one request item.
type MatchResult struct {
	ItemID     string            `json:"itemId"`
	Ranked     []ScoredCandidate `json:"ranked"`
	ChosenSKU  string            `json:"chosenSkuId,omitempty"`
	FinalScore float64           `json:"finalScore"`
	Breakdown  []AttributeScore  `json:"breakdown,omitempty"`
	Status     MatchStatus       `json:"status"`
	// Annotation carries a failure code (e.g. UPSTREAM_UNAVAILABLE) when the
	// item ended Unmatched for operational rather than technical-fit reasons.
	Annotation string `json:"annotation,omitempty"`
}

// PricingLine is the priced outcome for one matched item.
type PricingLine struct {
	ItemID            string  `json:"itemId"`
	SKUID             string  `json:"skuId"`
	Quantity          float64 `json:"quantity"`
	UnitPrice         float64 `json:"unitPrice"`
	MaterialCost      float64 `json:"materialCost"`
	AllocatedTestCost float64 `json:"allocatedTestCost"`
	TotalCost         float64 `json:"totalCost"`
}

// ProductTableRow summarizes one item for downstream presentation.
type ProductTableRow struct {
	ItemID         string  `json:"itemId"`
	SKUID          string  `json:"skuId"`
	ProductName    string  `json:"productName"`
	SpecMatch      float64 `json:"specMatchPercent"`
	Quantity       float64 `json:"quantity"`
	UnitPrice      float64 `json:"unitPrice"`
	TotalCost      float64 `json:"totalCost"`
	Status         string  `json:"status"`
	AnnotationCode string  `json:"annotation,omitempty"`
}

// ProposalResult is the aggregate outcome of one pipeline run. The
// orchestrator is its sole owner until the run terminates.
type ProposalResult struct {
	RunID             string            `json:"runId"`
	RFPID             string            `json:"rfpId"`
	Matches           []MatchResult     `json:"matches"`
	Lines             []PricingLine     `json:"pricingLines"`
	ProductTable      []ProductTableRow `json:"productTable,omitempty"`
	TotalMaterialCost float64           `json:"totalMaterialCost"`
	TotalTestCost     float64           `json:"totalTestCost"`
	GrandTotal        float64           `json:"grandTotal"`
	Narrative         *string           `json:"narrative"`
	Degraded          bool              `json:"degraded"`
	Status            RunStatus         `json:"status"`
	FailureReason     string            `json:"failureReason,omitempty"`
}

// MatchedCount returns the number of items that cleared the acceptance
// threshold.
func (p *ProposalResult) MatchedCount() int {
	n := 0
	for _, m := range p.Matches {
		if m.Status == MatchStatusMatched {
			n++
		}
	}
	return n
}
