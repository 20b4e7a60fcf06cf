package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/suiscode/ai-resume/internal/llm"
)

const (
	DefaultModel    = "gemini-2.5-flash"
	DefaultTimeout  = 20 * time.Second
	temperature     = 0.4
	maxOutputTokens = 700
)

type Service struct {
	LLM     llm.Client
	Model   string
	Timeout time.Duration
}

func NewService(client llm.Client, model string, timeout time.Duration) *Service {
	if model == "" {
		model = DefaultModel
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{LLM: client, Model: model, Timeout: timeout}
}

// Reply produces the next assistant turn.
func (s *Service) Reply(ctx context.Context, messages []Message, rc *ResumeContext) (Reply, error) {
	if s.LLM == nil {
		return Reply{}, llm.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	raw, err := s.LLM.Generate(ctx, llm.Request{
		Operation:       "chat",
		Model:           s.Model,
		Prompt:          buildPrompt(messages, rc),
		Temperature:     temperature,
		MaxOutputTokens: maxOutputTokens,
		Schema:          replySchema.Shape(),
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return Reply{}, fmt.Errorf("chat: %w", context.DeadlineExceeded)
		}
		return Reply{}, err
	}

	cleaned := []byte(llm.CleanJSON(raw))
	if len(cleaned) == 0 {
		return Reply{}, llm.ErrEmptyOutput
	}
	if !json.Valid(cleaned) {
		return Reply{}, fmt.Errorf("%w: invalid json", llm.ErrMalformedOutput)
	}
	if err := replySchema.Validate(cleaned); err != nil {
		return Reply{}, err
	}
	var out Reply
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", llm.ErrMalformedOutput, err)
	}
	out.Reply = strings.TrimSpace(out.Reply)
	if out.Reply == "" {
		return Reply{}, llm.ErrEmptyOutput
	}
	return out, nil
}
