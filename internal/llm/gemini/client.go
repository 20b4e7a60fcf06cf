package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/suiscode/ai-resume/internal/llm"
	"github.com/suiscode/ai-resume/internal/shared/metrics"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

const providerName = "gemini"

// Client implements llm.Client for Google Gemini.
type Client struct {
	client *genai.Client
}

// New creates a Gemini client. An empty key yields llm.ErrNotConfigured.
// Requests go through noRetryTransport, so a provider 5xx surfaces on the
// first attempt instead of being retried by the SDK until the deadline.
func New(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, llm.ErrNotConfigured
	}
	httpClient := &http.Client{Transport: &noRetryTransport{apiKey: apiKey, base: http.DefaultTransport}}
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey), option.WithHTTPClient(httpClient)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{client: client}, nil
}

func (c *Client) Provider() string { return providerName }

// Close releases the underlying connection.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate runs a single JSON-mode generation.
func (c *Client) Generate(ctx context.Context, req llm.Request) (string, error) {
	model := c.client.GenerativeModel(req.Model)
	model.SetTemperature(req.Temperature)
	if req.MaxOutputTokens > 0 {
		model.SetMaxOutputTokens(req.MaxOutputTokens)
	}
	model.ResponseMIMEType = "application/json"
	if req.Schema != nil {
		model.ResponseSchema = toGenaiSchema(req.Schema)
	}
	if req.SystemInstruction != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemInstruction)},
		}
	}

	start := time.Now()
	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	elapsed := time.Since(start)
	if err != nil {
		mapped := mapError(err)
		observe(req, elapsed, mapped)
		return "", mapped
	}

	text, err := textFrom(resp)
	observe(req, elapsed, err)
	if err != nil {
		return "", err
	}
	fields := map[string]any{
		"provider":   providerName,
		"operation":  req.Operation,
		"model":      req.Model,
		"latency_ms": elapsed.Milliseconds(),
	}
	if resp.UsageMetadata != nil {
		fields["input_tokens"] = resp.UsageMetadata.PromptTokenCount
		fields["output_tokens"] = resp.UsageMetadata.CandidatesTokenCount
	}
	telemetry.Info("llm.call", fields)
	return text, nil
}

func observe(req llm.Request, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		telemetry.Warn("llm.call_failed", map[string]any{
			"provider":   providerName,
			"operation":  req.Operation,
			"model":      req.Model,
			"latency_ms": elapsed.Milliseconds(),
			"error":      err.Error(),
		})
	}
	metrics.ObserveLLMCall(providerName, req.Operation, outcome, elapsed)
}

func textFrom(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", llm.ErrEmptyOutput
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return "", llm.ErrEmptyOutput
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", llm.ErrEmptyOutput
	}
	return out, nil
}

type httpCoder interface {
	HTTPCode() int
}

func mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %v", llm.ErrEmptyOutput, blocked)
	}
	var uerr *upstreamError
	if errors.As(err, &uerr) {
		return &llm.ProviderError{Provider: providerName, Status: uerr.Status, Message: uerr.Message, Err: err}
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = http.StatusText(gerr.Code)
		}
		return &llm.ProviderError{Provider: providerName, Status: gerr.Code, Message: msg, Err: err}
	}
	var coded httpCoder
	if errors.As(err, &coded) && coded.HTTPCode() > 0 {
		return &llm.ProviderError{Provider: providerName, Status: coded.HTTPCode(), Message: err.Error(), Err: err}
	}
	return &llm.ProviderError{Provider: providerName, Message: err.Error(), Err: err}
}

func toGenaiSchema(s *llm.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        toGenaiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	if s.Items != nil {
		out.Items = toGenaiSchema(s.Items)
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
	}
	return out
}

func toGenaiType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

var _ llm.Client = (*Client)(nil)
