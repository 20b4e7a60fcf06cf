package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "not configured", err: ErrNotConfigured, want: KindNotConfigured},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: KindTimeout},
		{name: "empty", err: ErrEmptyOutput, want: KindEmptyOutput},
		{name: "429", err: &ProviderError{Status: 429}, want: KindRateLimited},
		{name: "400", err: &ProviderError{Status: 400}, want: KindRejected},
		{name: "422", err: &ProviderError{Status: 422}, want: KindRejected},
		{name: "408", err: &ProviderError{Status: 408}, want: KindRejected},
		{name: "504", err: &ProviderError{Status: 504}, want: KindProvider},
		{name: "500", err: &ProviderError{Status: 500}, want: KindProvider},
		{name: "no status", err: &ProviderError{}, want: KindProvider},
		{name: "other", err: errors.New("boom"), want: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: "gemini", Status: 400, Message: "bad field"}
	assert.Equal(t, "gemini error status=400: bad field", err.Error())
}

func TestCleanJSON(t *testing.T) {
	assert.Equal(t, `{"a":1}`, CleanJSON("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, CleanJSON("  {\"a\":1} "))
}

const testSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["reply"],
  "properties": {
    "reply": {"type": "string", "minLength": 1, "maxLength": 5}
  }
}`

func TestOutputSchemaValidate(t *testing.T) {
	schema, err := CompileSchema(testSchema)
	require.NoError(t, err)

	assert.NoError(t, schema.Validate([]byte(`{"reply":"hi"}`)))

	err = schema.Validate([]byte(`{"reply":"too long"}`))
	var serr *SchemaError
	require.ErrorAs(t, err, &serr)
	assert.NotEmpty(t, serr.Issues)

	assert.Error(t, schema.Validate([]byte(`not json`)))
	assert.Error(t, schema.Validate([]byte(`{"reply":"hi","extra":1}`)))
}

func TestOutputSchemaShape(t *testing.T) {
	schema := MustCompileSchema(testSchema)
	shape := schema.Shape()
	assert.Equal(t, "object", shape.Type)
	assert.Equal(t, []string{"reply"}, shape.Required)
	assert.Equal(t, "string", shape.Properties["reply"].Type)
}
