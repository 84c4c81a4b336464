// internal/matching/scorer_test.go
package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rfp-proposal-engine/internal/models"
)

func TestScoreAttribute(t *testing.T) {
	scorer := NewScorer(0.10)

	candidate := &models.Candidate{
		SKUID: "SKU-001",
		Attributes: map[string]string{
			"rated_voltage": "11kV",
			"conductor":     "Aluminium",
			"insulation":    "XLPE",
			"standard":      "IEC 60502-2",
		},
	}

	tests := []struct {
		name      string
		spec      models.SpecRequirement
		wantScore float64
		wantType  string
	}{
		{
			name:      "exact match through synonym lookup",
			spec:      models.SpecRequirement{Name: "voltage", Value: "11kV", Tolerance: models.ToleranceNumeric},
			wantScore: 100,
			wantType:  MatchTypeExact,
		},
		{
			name:      "numeric within tolerance band",
			spec:      models.SpecRequirement{Name: "voltage", Value: "12kV", Tolerance: models.ToleranceNumeric},
			wantScore: 80,
			wantType:  MatchTypeNumericBand,
		},
		{
			name:      "numeric within twice the band",
			spec:      models.SpecRequirement{Name: "voltage", Value: "13kV", Tolerance: models.ToleranceNumeric},
			wantScore: 50,
			wantType:  MatchTypeNumericNear,
		},
		{
			name:      "numeric far outside tolerance",
			spec:      models.SpecRequirement{Name: "voltage", Value: "33kV", Tolerance: models.ToleranceNumeric},
			wantScore: 0,
			wantType:  MatchTypeMismatch,
		},
		{
			name:      "exact tolerance rejects near value",
			spec:      models.SpecRequirement{Name: "insulation", Value: "XLPE compound", Tolerance: models.ToleranceExact},
			wantScore: 0,
			wantType:  MatchTypeMismatch,
		},
		{
			name:      "substring containment",
			spec:      models.SpecRequirement{Name: "standard", Value: "IEC 60502", Tolerance: models.ToleranceNone},
			wantScore: 60,
			wantType:  MatchTypeSubstring,
		},
		{
			name:      "missing attribute",
			spec:      models.SpecRequirement{Name: "armour", Value: "SWA", Tolerance: models.ToleranceNone},
			wantScore: 0,
			wantType:  MatchTypeMissing,
		},
		{
			name:      "case insensitive exact",
			spec:      models.SpecRequirement{Name: "conductor", Value: "aluminium", Tolerance: models.ToleranceExact},
			wantScore: 100,
			wantType:  MatchTypeExact,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := scorer.ScoreAttribute(tt.spec, candidate)
			assert.InDelta(t, tt.wantScore, got.Score, 0.001)
			assert.Equal(t, tt.wantType, got.MatchType)
		})
	}
}

func TestScoreAttribute_TokenOverlap(t *testing.T) {
	scorer := NewScorer(0.10)

	candidate := &models.Candidate{
		Attributes: map[string]string{
			"sheath": "black pvc outer",
		},
	}

	spec := models.SpecRequirement{
		Name:      "sheath",
		Value:     "red pvc",
		Tolerance: models.ToleranceNone,
	}

	got := scorer.ScoreAttribute(spec, candidate)
	// one common token over the larger set of three candidate tokens
	assert.InDelta(t, 50.0/3, got.Score, 0.001)
	assert.Equal(t, MatchTypeTokenOverlap, got.MatchType)
}

func TestScoreAttribute_TokenOverlapVerboseCandidate(t *testing.T) {
	scorer := NewScorer(0.10)

	candidate := &models.Candidate{
		Attributes: map[string]string{
			"armour": "armoured copper xlpe fr cable",
		},
	}

	spec := models.SpecRequirement{
		Name:      "armour",
		Value:     "copper armoured",
		Tolerance: models.ToleranceNone,
	}

	got := scorer.ScoreAttribute(spec, candidate)
	// both required tokens present, diluted by the five candidate tokens
	assert.InDelta(t, 20.0, got.Score, 0.001)
	assert.Equal(t, MatchTypeTokenOverlap, got.MatchType)
}

func TestScoreCandidate_SimpleAverage(t *testing.T) {
	scorer := NewScorer(0.10)

	item := &models.RequestItem{
		ItemID: "ITEM-1",
		Specs: []models.SpecRequirement{
			{Name: "voltage", Value: "12kV", Tolerance: models.ToleranceNumeric},
			{Name: "insulation", Value: "XLPE", Tolerance: models.ToleranceExact},
			{Name: "armour", Value: "SWA", Tolerance: models.ToleranceNone},
		},
	}
	candidate := &models.Candidate{
		SKUID: "SKU-001",
		Attributes: map[string]string{
			"rated_voltage": "11kV",
			"insulation":    "XLPE",
		},
	}

	score, breakdown := scorer.ScoreCandidate(item, candidate)

	// (80 + 100 + 0) / 3
	assert.InDelta(t, 60.0, score, 0.001)
	require.Len(t, breakdown, 3)
	assert.Equal(t, MatchTypeNumericBand, breakdown[0].MatchType)
	assert.Equal(t, MatchTypeExact, breakdown[1].MatchType)
	assert.Equal(t, MatchTypeMissing, breakdown[2].MatchType)
}

func TestScoreCandidate_NoSpecsScoresZero(t *testing.T) {
	scorer := NewScorer(0.10)

	item := &models.RequestItem{ItemID: "ITEM-EMPTY"}
	candidate := &models.Candidate{SKUID: "SKU-001"}

	score, breakdown := scorer.ScoreCandidate(item, candidate)
	assert.Zero(t, score)
	assert.Nil(t, breakdown)
}

func TestScoreCandidate_Deterministic(t *testing.T) {
	scorer := NewScorer(0.10)

	item := &models.RequestItem{
		ItemID: "ITEM-1",
		Specs: []models.SpecRequirement{
			{Name: "voltage", Value: "11kV", Tolerance: models.ToleranceNumeric},
			{Name: "conductor", Value: "Copper", Tolerance: models.ToleranceExact},
		},
	}
	candidate := &models.Candidate{
		SKUID: "SKU-007",
		Attributes: map[string]string{
			"voltage":   "11kV",
			"conductor": "Aluminium",
		},
	}

	first, _ := scorer.ScoreCandidate(item, candidate)
	for i := 0; i < 50; i++ {
		again, _ := scorer.ScoreCandidate(item, candidate)
		assert.Equal(t, first, again)
	}
}

func TestCanonicalName(t *testing.T) {
	assert.Equal(t, "voltage", canonicalName("Rated Voltage"))
	assert.Equal(t, "voltage", canonicalName("voltage_rating"))
	assert.Equal(t, "size", canonicalName("Cross-Section"))
	assert.Equal(t, "sheath", canonicalName("  Sheath "))
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"12kV", 12, true},
		{"300 sqmm", 300, true},
		{"-5.5", -5.5, true},
		{"IEC 60502-2", 60502, true},
		{"copper", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseNumber(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		if ok {
			assert.Equal(t, tt.want, got, tt.in)
		}
	}
}
