package chat

import "github.com/suiscode/ai-resume/internal/llm"

const replySchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["reply"],
  "properties": {
    "reply": {"type": "string", "minLength": 1, "maxLength": 4000}
  }
}`

var replySchema = llm.MustCompileSchema(replySchemaJSON)
