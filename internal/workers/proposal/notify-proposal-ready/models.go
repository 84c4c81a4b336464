// internal/workers/proposal/notify-proposal-ready/models.go
package notifyproposalready

type Input struct {
	RunID          string  `json:"runId"`
	RFPID          string  `json:"rfpId"`
	Status         string  `json:"proposalStatus"`
	GrandTotal     float64 `json:"grandTotal"`
	RecipientEmail string  `json:"recipientEmail"`
	RecipientPhone string  `json:"recipientPhone"`
}

type Output struct {
	EmailSent bool `json:"emailSent"`
	SMSSent   bool `json:"smsSent"`
}
