package llm

import (
	"context"
	"errors"
	"strconv"
	"strings"
)

// Client abstracts hosted LLM providers.
type Client interface {
	Generate(ctx context.Context, req Request) (string, error)
	Provider() string
}

// Request is a single-turn, JSON-producing generation call.
type Request struct {
	// Operation labels logs and metrics ("analyze", "chat").
	Operation         string
	Model             string
	SystemInstruction string
	Prompt            string
	Temperature       float32
	MaxOutputTokens   int32
	// Schema constrains the JSON output where the provider supports it.
	Schema *Schema
}

var (
	// ErrNotConfigured means no API key was supplied for the selected provider.
	ErrNotConfigured = errors.New("llm provider not configured")
	// ErrEmptyOutput means the provider answered without usable text.
	ErrEmptyOutput = errors.New("llm returned empty output")
)

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(" error")
	if e.Status > 0 {
		b.WriteString(" status=")
		b.WriteString(strconv.Itoa(e.Status))
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Kind groups failures by how callers must answer them.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotConfigured
	KindTimeout
	KindRateLimited
	KindRejected
	KindProvider
	KindEmptyOutput
)

// Classify maps a Generate error to a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, ErrNotConfigured) {
		return KindNotConfigured
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	if errors.Is(err, ErrEmptyOutput) {
		return KindEmptyOutput
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		switch {
		case perr.Status == 429:
			return KindRateLimited
		case perr.Status >= 400 && perr.Status < 500:
			return KindRejected
		default:
			return KindProvider
		}
	}
	return KindUnknown
}

// CleanJSON strips markdown code fences some models wrap around JSON.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
