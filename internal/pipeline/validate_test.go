// internal/pipeline/validate_test.go
package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/models"
)

func validRFP() *models.RFP {
	return &models.RFP{
		RFPID: "RFP-1",
		Title: "Cable Supply",
		Items: []models.RequestItem{
			{
				ItemID:      "ITEM-1",
				Description: "11kV XLPE cable",
				Quantity:    500,
				Unit:        "m",
				Specs: []models.SpecRequirement{
					{Name: "voltage", Value: "11kV", Tolerance: models.ToleranceNumeric},
				},
			},
		},
		TestRequirements: []models.TestRequirement{
			{Name: "Routine Test"},
		},
	}
}

func TestValidateRFP_Valid(t *testing.T) {
	assert.NoError(t, ValidateRFP(validRFP()))
}

func TestValidateRFP_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RFP)
	}{
		{"missing rfpId", func(r *models.RFP) { r.RFPID = "" }},
		{"missing title", func(r *models.RFP) { r.Title = "" }},
		{"no items", func(r *models.RFP) { r.Items = nil }},
		{"item without id", func(r *models.RFP) { r.Items[0].ItemID = "" }},
		{"item without description", func(r *models.RFP) { r.Items[0].Description = "" }},
		{"zero quantity", func(r *models.RFP) { r.Items[0].Quantity = 0 }},
		{"negative quantity", func(r *models.RFP) { r.Items[0].Quantity = -5 }},
		{"spec without value", func(r *models.RFP) { r.Items[0].Specs[0].Value = "" }},
		{"unknown tolerance kind", func(r *models.RFP) { r.Items[0].Specs[0].Tolerance = "fuzzy" }},
		{"test without name", func(r *models.RFP) { r.TestRequirements[0].Name = "" }},
		{"duplicate item ids", func(r *models.RFP) {
			r.Items = append(r.Items, r.Items[0])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rfp := validRFP()
			tt.mutate(rfp)

			err := ValidateRFP(rfp)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeValidation, errors.CodeOf(err))
			assert.False(t, errors.IsRetryable(err))
		})
	}
}
