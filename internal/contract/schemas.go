package contract

import "encoding/json"

// JSON Schemas sent to the model as response_format and used for local
// validation of the returned document. The wrapper shape matches the
// OpenAI-compatible json_schema response format.

// ContextualizedPairSchema constrains the Contextualizer's response.
var ContextualizedPairSchema = json.RawMessage(`{
  "name": "contextualized_contract",
  "strict": true,
  "schema": {
    "type": "object",
    "properties": {
      "original_contract_text": {
        "type": "string",
        "minLength": 5,
        "description": "Text of the original contract, just the text impacted by the amendment"
      },
      "amendment_text": {
        "type": "string",
        "minLength": 5,
        "description": "Text of the amendment"
      }
    },
    "required": ["original_contract_text", "amendment_text"],
    "additionalProperties": false
  }
}`)

// ChangeSummarySchema constrains the Change Extractor's response.
var ChangeSummarySchema = json.RawMessage(`{
  "name": "contract_change_summary",
  "strict": true,
  "schema": {
    "type": "object",
    "properties": {
      "topics_touched": {
        "type": "array",
        "items": {"type": "string", "minLength": 1},
        "minItems": 1,
        "description": "Topics touched in the amendment"
      },
      "sections_changed": {
        "type": "array",
        "items": {"type": "string", "minLength": 1},
        "minItems": 1,
        "description": "Sections changed in the amendment"
      },
      "summary_of_the_change": {
        "type": "string",
        "minLength": 5,
        "description": "Summary of the change with format Section X: -change_1 \n -change_2, ..."
      }
    },
    "required": ["topics_touched", "sections_changed", "summary_of_the_change"],
    "additionalProperties": false
  }
}`)
