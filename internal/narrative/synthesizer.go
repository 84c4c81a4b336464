// internal/narrative/synthesizer.go

// Package narrative renders the proposal cover narrative from the finished
// match and pricing results. The narrative is presentation only; nothing in
// it feeds back into scores or prices.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/common/llm"
	"rfp-proposal-engine/internal/common/logger"
	"rfp-proposal-engine/internal/common/retry"
	"rfp-proposal-engine/internal/models"
)

// Synthesizer asks the language model for a buyer-facing narrative over the
// structured run outcome.
type Synthesizer struct {
	completer llm.Completer
	policy    retry.Policy
	logger    logger.Logger
}

func NewSynthesizer(completer llm.Completer, log logger.Logger) *Synthesizer {
	policy := retry.DefaultPolicy
	policy.Retryable = errors.IsRetryable
	return &Synthesizer{
		completer: completer,
		policy:    policy,
		logger:    log.WithFields(map[string]interface{}{"component": "narrative"}),
	}
}

// Synthesize returns the narrative text. Failure after retries is returned
// to the caller, which degrades the proposal rather than failing the run.
func (s *Synthesizer) Synthesize(ctx context.Context, rfp *models.RFP, result *models.ProposalResult) (string, error) {
	prompt := buildPrompt(rfp, result)

	var narrative string
	err := s.policy.Do(ctx, "synthesize-narrative", func(ctx context.Context) error {
		var err error
		narrative, err = s.completer.Complete(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}

	narrative = strings.TrimSpace(narrative)
	if narrative == "" {
		return "", errors.NewLLMCompletionFailedError(fmt.Errorf("empty narrative"))
	}
	return narrative, nil
}

// buildPrompt lays out the structured summary the model writes from. Only
// facts already computed by the pipeline appear here.
func buildPrompt(rfp *models.RFP, result *models.ProposalResult) string {
	var sb strings.Builder
	sb.WriteString("Write a concise, professional proposal narrative for the following procurement response.\n")
	sb.WriteString("Use only the facts below. Do not invent prices, products or test results.\n\n")

	fmt.Fprintf(&sb, "RFP: %s", rfp.Title)
	if rfp.Buyer != "" {
		fmt.Fprintf(&sb, " (buyer: %s)", rfp.Buyer)
	}
	sb.WriteString("\n")
	if rfp.Summary != "" {
		fmt.Fprintf(&sb, "Scope: %s\n", rfp.Summary)
	}

	fmt.Fprintf(&sb, "\nItems requested: %d, matched: %d\n", len(rfp.Items), result.MatchedCount())
	sb.WriteString("\nMatched lines:\n")
	for _, row := range result.ProductTable {
		if row.Status != string(models.MatchStatusMatched) {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s (spec match %.0f%%), qty %.0f, total %.2f\n",
			row.ItemID, row.ProductName, row.SpecMatch, row.Quantity, row.TotalCost)
	}

	unmatched := false
	for _, row := range result.ProductTable {
		if row.Status == string(models.MatchStatusMatched) {
			continue
		}
		if !unmatched {
			sb.WriteString("\nUnmatched items:\n")
			unmatched = true
		}
		fmt.Fprintf(&sb, "- %s", row.ItemID)
		if row.AnnotationCode != "" {
			fmt.Fprintf(&sb, " (%s)", row.AnnotationCode)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "\nTotal material cost: %.2f\nTotal test cost: %.2f\nGrand total: %.2f\n",
		result.TotalMaterialCost, result.TotalTestCost, result.GrandTotal)

	if unmatched {
		sb.WriteString("\nAcknowledge the unmatched items as exclusions without speculating about alternatives.\n")
	}
	return sb.String()
}
