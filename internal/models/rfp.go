// internal/models/rfp.go
package models

import "time"

// ToleranceKind controls how a required spec value is compared against a
// candidate attribute.
type ToleranceKind string

const (
	// ToleranceExact requires a normalized exact value match.
	ToleranceExact ToleranceKind = "exact"
	// ToleranceNumeric allows the candidate value to deviate from the
	// required value within the configured numeric band.
	ToleranceNumeric ToleranceKind = "numeric"
	// ToleranceNone falls back to textual comparison only.
	ToleranceNone ToleranceKind = "none"
)

// SpecRequirement is a single required attribute on an RFP item. Order of
// requirements is preserved from the source document.
type SpecRequirement struct {
	Name      string        `json:"name"`
	Value     string        `json:"value"`
	Tolerance ToleranceKind `json:"tolerance,omitempty"`
}

// RequestItem is one line of the RFP scope of supply.
type RequestItem struct {
	ItemID      string            `json:"itemId"`
	Description string            `json:"description"`
	Quantity    float64           `json:"quantity"`
	Unit        string            `json:"unit"`
	Specs       []SpecRequirement `json:"specs"`
}

// Spec returns the requirement with the given name, if present.
func (it *RequestItem) Spec(name string) (SpecRequirement, bool) {
	for _, s := range it.Specs {
		if s.Name == name {
			return s, true
		}
	}
	return SpecRequirement{}, false
}

// TestRequirement names a test the buyer requires. Each test has a price in
// the pricing table; together they form the RFP's test-cost pool.
type TestRequirement struct {
	Name        string `json:"testName"`
	Description string `json:"description,omitempty"`
	Standard    string `json:"requiredStandard,omitempty"`
	Frequency   string `json:"frequency,omitempty"`
}

// RFP is the parsed procurement request the pipeline starts from. Ingestion
// (scraping, PDF parsing) happens upstream; by the time an RFP reaches this
// engine it is already structured.
type RFP struct {
	RFPID              string            `json:"rfpId"`
	Title              string            `json:"title"`
	Buyer              string            `json:"buyer,omitempty"`
	Summary            string            `json:"summary,omitempty"`
	SubmissionDeadline time.Time         `json:"submissionDeadline"`
	Items              []RequestItem     `json:"scopeOfSupply"`
	TestRequirements   []TestRequirement `json:"testRequirements"`
}
