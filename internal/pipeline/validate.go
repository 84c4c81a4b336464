// internal/pipeline/validate.go
package pipeline

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"rfp-proposal-engine/internal/common/errors"
	"rfp-proposal-engine/internal/models"
)

// rfpSchema is the structural contract an RFP must satisfy before a run
// starts. Tolerance kinds beyond the known three are rejected here rather
// than defaulting silently.
const rfpSchema = `{
	"type": "object",
	"required": ["rfpId", "title", "scopeOfSupply"],
	"properties": {
		"rfpId": {"type": "string", "minLength": 1},
		"title": {"type": "string", "minLength": 1},
		"scopeOfSupply": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["itemId", "description", "quantity"],
				"properties": {
					"itemId": {"type": "string", "minLength": 1},
					"description": {"type": "string", "minLength": 1},
					"quantity": {"type": "number", "exclusiveMinimum": 0},
					"unit": {"type": "string"},
					"specs": {
						"type": "array",
						"items": {
							"type": "object",
							"required": ["name", "value"],
							"properties": {
								"name": {"type": "string", "minLength": 1},
								"value": {"type": "string", "minLength": 1},
								"tolerance": {"enum": ["exact", "numeric", "none"]}
							}
						}
					}
				}
			}
		},
		"testRequirements": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["testName"],
				"properties": {
					"testName": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var rfpSchemaLoader = gojsonschema.NewStringLoader(rfpSchema)

// ValidateRFP checks the structural contract of an RFP document. Duplicate
// item ids are rejected on top of the schema.
func ValidateRFP(rfp *models.RFP) error {
	doc, err := json.Marshal(rfp)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}

	result, err := gojsonschema.Validate(rfpSchemaLoader, gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return errors.NewValidationError(err.Error())
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return errors.NewValidationError(strings.Join(msgs, "; "))
	}

	seen := make(map[string]bool, len(rfp.Items))
	for _, item := range rfp.Items {
		if seen[item.ItemID] {
			return errors.NewValidationError(fmt.Sprintf("duplicate itemId: %s", item.ItemID))
		}
		seen[item.ItemID] = true
	}
	return nil
}
