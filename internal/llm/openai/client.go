package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/suiscode/ai-resume/internal/llm"
	"github.com/suiscode/ai-resume/internal/shared/metrics"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

const providerName = "openai"

// Client implements llm.Client using OpenAI chat completions.
type Client struct {
	client *openai.Client
	model  string
}

// Options configures a Client. BaseURL is optional.
type Options struct {
	APIKey  string
	Model   string
	BaseURL string
}

// New builds a client with SDK retries disabled; callers own retry policy.
func New(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, llm.ErrNotConfigured
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	return &Client{
		client: openai.NewClient(reqOpts...),
		model:  strings.TrimSpace(opts.Model),
	}, nil
}

func (c *Client) Provider() string { return providerName }

// Generate sends a system+user exchange in JSON object mode.
// When a default model is configured it overrides the Gemini model name in req.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	model := c.model
	if model == "" {
		model = req.Model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(req.SystemInstruction))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: openai.F(messages),
		Model:    openai.F(openai.ChatModel(model)),
		ResponseFormat: openai.F[openai.ChatCompletionNewParamsResponseFormatUnion](
			openai.ResponseFormatJSONObjectParam{
				Type: openai.F(openai.ResponseFormatJSONObjectTypeJSONObject),
			},
		),
	}
	if supportsTemperature(model) {
		params.Temperature = openai.F(float64(req.Temperature))
	}
	if req.MaxOutputTokens > 0 {
		params.MaxCompletionTokens = openai.F(int64(req.MaxOutputTokens))
	}

	start := time.Now()
	completion, err := c.client.Chat.Completions.New(ctx, params)
	elapsed := time.Since(start)
	if err != nil {
		mapped := mapError(err)
		observe(req.Operation, model, elapsed, mapped)
		return "", mapped
	}

	var text string
	if len(completion.Choices) > 0 {
		text = strings.TrimSpace(completion.Choices[0].Message.Content)
	}
	if text == "" {
		observe(req.Operation, model, elapsed, llm.ErrEmptyOutput)
		return "", llm.ErrEmptyOutput
	}
	observe(req.Operation, model, elapsed, nil)
	telemetry.Info("llm.call", map[string]any{
		"provider":      providerName,
		"operation":     req.Operation,
		"model":         model,
		"latency_ms":    elapsed.Milliseconds(),
		"input_tokens":  completion.Usage.PromptTokens,
		"output_tokens": completion.Usage.CompletionTokens,
	})
	return text, nil
}

func observe(operation, model string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		telemetry.Warn("llm.call_failed", map[string]any{
			"provider":   providerName,
			"operation":  operation,
			"model":      model,
			"latency_ms": elapsed.Milliseconds(),
			"error":      err.Error(),
		})
	}
	metrics.ObserveLLMCall(providerName, operation, outcome, elapsed)
}

func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		// apiErr.Error() embeds the request line and raw body; only the
		// provider's own message may reach callers.
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		return &llm.ProviderError{Provider: providerName, Status: apiErr.StatusCode, Message: msg, Err: err}
	}
	return &llm.ProviderError{Provider: providerName, Message: fmt.Sprintf("request failed: %v", err), Err: err}
}

// Reasoning models reject a custom temperature.
func supportsTemperature(model string) bool {
	m := strings.ToLower(strings.TrimSpace(model))
	if strings.HasPrefix(m, "gpt-5") {
		return false
	}
	if len(m) > 1 && m[0] == 'o' && m[1] >= '0' && m[1] <= '9' {
		return false
	}
	return true
}

var _ llm.Client = (*Client)(nil)
