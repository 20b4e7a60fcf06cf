package analysis

import "github.com/suiscode/ai-resume/internal/llm"

const resultSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["overallScore", "strengths", "weaknesses", "suggestions", "keywordGaps"],
  "properties": {
    "overallScore": {"type": "integer", "minimum": 0, "maximum": 100},
    "strengths": {
      "type": "array", "minItems": 1, "maxItems": 10,
      "items": {"type": "string", "minLength": 1, "maxLength": 500}
    },
    "weaknesses": {
      "type": "array", "minItems": 1, "maxItems": 10,
      "items": {"type": "string", "minLength": 1, "maxLength": 500}
    },
    "suggestions": {
      "type": "array", "minItems": 1, "maxItems": 10,
      "items": {"type": "string", "minLength": 1, "maxLength": 500}
    },
    "keywordGaps": {
      "type": "array", "minItems": 0, "maxItems": 20,
      "items": {"type": "string", "minLength": 1, "maxLength": 100}
    }
  }
}`

var resultSchema = llm.MustCompileSchema(resultSchemaJSON)
