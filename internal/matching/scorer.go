// internal/matching/scorer.go

// Package matching implements the spec-match stage: query construction,
// candidate retrieval, deterministic attribute scoring and the optional
// LLM re-rank of top candidates.
package matching

import (
	"regexp"
	"strconv"
	"strings"

	"rfp-proposal-engine/internal/models"
)

// Match type labels carried in the per-attribute breakdown.
const (
	MatchTypeExact        = "exact"
	MatchTypeNumericBand  = "numeric_within_tolerance"
	MatchTypeNumericNear  = "numeric_near_tolerance"
	MatchTypeSubstring    = "substring"
	MatchTypeTokenOverlap = "token_overlap"
	MatchTypeMissing      = "missing"
	MatchTypeMismatch     = "mismatch"
)

// attributeSynonyms maps alternate attribute spellings onto canonical names
// so a spec asking for "voltage" finds a candidate's "rated_voltage".
var attributeSynonyms = map[string]string{
	"rated_voltage":        "voltage",
	"voltage_rating":       "voltage",
	"nominal_voltage":      "voltage",
	"conductor_material":   "conductor",
	"conductor_type":       "conductor",
	"insulation_type":      "insulation",
	"insulation_material":  "insulation",
	"cross_section":        "size",
	"cross_sectional_area": "size",
	"area":                 "size",
	"standard_compliance":  "standard",
	"applicable_standard":  "standard",
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// Scorer computes deterministic attribute scores.
type Scorer struct {
	// numericTolerance is the relative band for numeric comparison
	// (0.10 = ±10%). Values within the band score 80, within twice the
	// band 50.
	numericTolerance float64
}

func NewScorer(numericTolerance float64) *Scorer {
	return &Scorer{numericTolerance: numericTolerance}
}

// normalizeValue lowercases, trims and collapses whitespace.
func normalizeValue(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}

// canonicalName normalizes an attribute name and resolves synonyms.
func canonicalName(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.ReplaceAll(n, " ", "_")
	n = strings.ReplaceAll(n, "-", "_")
	if canon, ok := attributeSynonyms[n]; ok {
		return canon
	}
	return n
}

// lookupAttribute finds the candidate attribute matching the spec name,
// trying canonical-name equality across both sides.
func lookupAttribute(c *models.Candidate, specName string) (string, bool) {
	want := canonicalName(specName)
	for name, value := range c.Attributes {
		if canonicalName(name) == want {
			return value, true
		}
	}
	return "", false
}

// parseNumber extracts the first numeric token from a value like "12kV" or
// "300 sqmm".
func parseNumber(s string) (float64, bool) {
	m := numberPattern.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	return f, err == nil
}

// ScoreAttribute compares one required spec against a candidate value and
// returns the 0-100 attribute score with its match type.
func (s *Scorer) ScoreAttribute(spec models.SpecRequirement, c *models.Candidate) models.AttributeScore {
	result := models.AttributeScore{
		SpecName:      spec.Name,
		RequiredValue: spec.Value,
	}

	candidateValue, ok := lookupAttribute(c, spec.Name)
	if !ok {
		result.MatchType = MatchTypeMissing
		return result
	}
	result.CandidateValue = candidateValue

	required := normalizeValue(spec.Value)
	got := normalizeValue(candidateValue)

	if required == got {
		result.Score = 100
		result.MatchType = MatchTypeExact
		return result
	}

	if spec.Tolerance == models.ToleranceExact {
		result.MatchType = MatchTypeMismatch
		return result
	}

	if spec.Tolerance == models.ToleranceNumeric {
		if score, matchType, ok := s.scoreNumeric(required, got); ok {
			result.Score = score
			result.MatchType = matchType
			return result
		}
	}

	result.Score, result.MatchType = scoreTextual(required, got)
	return result
}

// scoreNumeric compares the numeric parts of both values against the relative
// tolerance band. ok=false means at least one side had no numeric part.
func (s *Scorer) scoreNumeric(required, got string) (float64, string, bool) {
	want, ok1 := parseNumber(required)
	have, ok2 := parseNumber(got)
	if !ok1 || !ok2 {
		return 0, "", false
	}

	if want == 0 {
		if have == 0 {
			return 100, MatchTypeExact, true
		}
		return 0, MatchTypeMismatch, true
	}

	relDiff := (have - want) / want
	if relDiff < 0 {
		relDiff = -relDiff
	}

	switch {
	case relDiff <= s.numericTolerance:
		return 80, MatchTypeNumericBand, true
	case relDiff <= 2*s.numericTolerance:
		return 50, MatchTypeNumericNear, true
	default:
		return 0, MatchTypeMismatch, true
	}
}

// scoreTextual applies the substring and token-overlap fallback rules. The
// overlap fraction divides by the larger token set so a verbose candidate
// value cannot outscore a tight one.
func scoreTextual(required, got string) (float64, string) {
	if strings.Contains(got, required) || strings.Contains(required, got) {
		return 60, MatchTypeSubstring
	}

	requiredTokens := tokenSet(required)
	if len(requiredTokens) == 0 {
		return 0, MatchTypeMismatch
	}
	gotTokens := tokenSet(got)

	overlap := 0
	for tok := range requiredTokens {
		if _, ok := gotTokens[tok]; ok {
			overlap++
		}
	}
	if overlap == 0 {
		return 0, MatchTypeMismatch
	}

	denom := len(requiredTokens)
	if len(gotTokens) > denom {
		denom = len(gotTokens)
	}
	return float64(overlap) / float64(denom) * 50, MatchTypeTokenOverlap
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// ScoreCandidate computes the item-level score for one candidate: the simple
// average over every required spec, with the full per-attribute breakdown.
// An item with no specs scores 0 rather than vacuously 100.
func (s *Scorer) ScoreCandidate(item *models.RequestItem, c *models.Candidate) (float64, []models.AttributeScore) {
	if len(item.Specs) == 0 {
		return 0, nil
	}

	breakdown := make([]models.AttributeScore, 0, len(item.Specs))
	total := 0.0
	for _, spec := range item.Specs {
		attr := s.ScoreAttribute(spec, c)
		breakdown = append(breakdown, attr)
		total += attr.Score
	}
	return total / float64(len(item.Specs)), breakdown
}
