// internal/models/catalog.go
package models

// Candidate is a catalog SKU eligible to fulfill a request item. Candidates
// are owned by the catalog collaborator and immutable within a pipeline run.
type Candidate struct {
	SKUID       string            `json:"skuId"`
	ProductName string            `json:"productName"`
	Category    string            `json:"category,omitempty"`
	Attributes  map[string]string `json:"attributes"`
	UnitPrice   float64           `json:"unitPrice"`
}

// Attribute returns the candidate attribute with the given name.
func (c *Candidate) Attribute(name string) (string, bool) {
	v, ok := c.Attributes[name]
	return v, ok
}
