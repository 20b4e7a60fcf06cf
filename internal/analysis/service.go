package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/suiscode/ai-resume/internal/llm"
)

const (
	DefaultModel   = "gemini-2.0-flash"
	DefaultTimeout = 20 * time.Second
	temperature    = 0.2
)

// Service runs one provider call per analysis and validates the output.
type Service struct {
	LLM     llm.Client
	Model   string
	Timeout time.Duration
}

// NewService constructs a Service. A nil client reports llm.ErrNotConfigured on use.
func NewService(client llm.Client, model string, timeout time.Duration) *Service {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{LLM: client, Model: model, Timeout: timeout}
}

// Analyze scores the resume text against an optional job target.
func (s *Service) Analyze(ctx context.Context, in Input) (Outcome, error) {
	if s.LLM == nil {
		return Outcome{}, llm.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	raw, err := s.LLM.Generate(ctx, llm.Request{
		Operation:         "analyze",
		Model:             s.Model,
		SystemInstruction: systemInstruction,
		Prompt:            buildPrompt(in.ResumeText, in.JobTarget),
		Temperature:       temperature,
		Schema:            resultSchema.Shape(),
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Outcome{}, fmt.Errorf("analyze: %w", context.DeadlineExceeded)
		}
		return Outcome{}, err
	}
	return parseResult(raw)
}

func parseResult(raw string) (Outcome, error) {
	cleaned := []byte(llm.CleanJSON(raw))
	if len(cleaned) == 0 {
		return Outcome{}, llm.ErrEmptyOutput
	}
	if !json.Valid(cleaned) {
		return Outcome{}, fmt.Errorf("%w: invalid json", llm.ErrMalformedOutput)
	}
	if err := resultSchema.Validate(cleaned); err != nil {
		return Outcome{}, err
	}
	var result Result
	if err := json.Unmarshal(cleaned, &result); err != nil {
		return Outcome{}, fmt.Errorf("%w: %v", llm.ErrMalformedOutput, err)
	}
	return Outcome{Result: result, Raw: cleaned}, nil
}
