package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiscode/ai-resume/internal/llm"
)

func newTestClient(t *testing.T, model string, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := New(Options{APIKey: "test-key", Model: model, BaseURL: srv.URL + "/"})
	require.NoError(t, err)
	return client
}

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
	return string(body)
}

func TestNewRequiresKey(t *testing.T) {
	_, err := New(Options{})
	assert.ErrorIs(t, err, llm.ErrNotConfigured)
}

func TestGenerateSendsPromptAndReturnsContent(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody(`{"reply":"hi"}`))
	})

	out, err := client.Generate(context.Background(), llm.Request{
		Operation:         "chat",
		Model:             "gemini-2.5-flash",
		SystemInstruction: "be brief",
		Prompt:            "hello",
		Temperature:       0.4,
		MaxOutputTokens:   700,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"reply":"hi"}`, out)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.InDelta(t, 0.4, got["temperature"], 0.001)
	assert.EqualValues(t, 700, got["max_completion_tokens"])
	messages, ok := got["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestGenerateOmitsTemperatureForReasoningModels(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, "gpt-5-mini", func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody(`{}`))
	})
	_, err := client.Generate(context.Background(), llm.Request{Prompt: "x", Temperature: 0.2})
	require.NoError(t, err)
	_, present := got["temperature"]
	assert.False(t, present)
}

func TestGenerateMapsStatusErrors(t *testing.T) {
	calls := 0
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"slow down","type":"rate_limit"}}`)
	})
	_, err := client.Generate(context.Background(), llm.Request{Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, llm.KindRateLimited, llm.Classify(err))
	assert.Equal(t, 1, calls)
}

func TestGenerateRejectedKeepsOnlyProviderMessage(t *testing.T) {
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"message":"Unsupported value: 'temperature'","type":"invalid_request_error","param":"temperature","code":"unsupported_value"}}`)
	})
	_, err := client.Generate(context.Background(), llm.Request{Prompt: "secret resume text"})
	require.Error(t, err)
	assert.Equal(t, llm.KindRejected, llm.Classify(err))

	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.NotEmpty(t, perr.Message)
	assert.NotContains(t, perr.Message, "POST")
	assert.NotContains(t, perr.Message, "/chat/completions")
	assert.NotContains(t, perr.Message, "invalid_request_error")
}

func TestGenerateEmptyContent(t *testing.T) {
	client := newTestClient(t, "gpt-4o-mini", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completionBody("  "))
	})
	_, err := client.Generate(context.Background(), llm.Request{Prompt: "x"})
	assert.ErrorIs(t, err, llm.ErrEmptyOutput)
}

func TestSupportsTemperature(t *testing.T) {
	assert.True(t, supportsTemperature("gpt-4o-mini"))
	assert.False(t, supportsTemperature("gpt-5"))
	assert.False(t, supportsTemperature("o3-mini"))
	assert.True(t, supportsTemperature("omni-custom"))
}
