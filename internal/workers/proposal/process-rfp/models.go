// internal/workers/proposal/process-rfp/models.go
package processrfp

type Input struct {
	RFPID string `json:"rfpId"`
}

type Output struct {
	RunID        string  `json:"runId"`
	RFPID        string  `json:"rfpId"`
	Status       string  `json:"proposalStatus"`
	MatchedItems int     `json:"matchedItems"`
	TotalItems   int     `json:"totalItems"`
	GrandTotal   float64 `json:"grandTotal"`
	Degraded     bool    `json:"degraded"`
	HasNarrative bool    `json:"hasNarrative"`
}
