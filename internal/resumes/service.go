package resumes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/suiscode/ai-resume/internal/queue"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// NewResume is the input to Save.
type NewResume struct {
	UserID    string
	Title     string
	Source    Source
	Score     int
	Analysis  json.RawMessage
	RawText   string
	JobTarget string
	RequestID string
}

// Service coordinates resume persistence and resume.analyzed events.
type Service struct {
	Repo  Repo
	Queue queue.Client
	Now   func() time.Time
	NewID func() string
}

// NewService constructs a Service. q may be nil.
func NewService(repo Repo, q queue.Client) *Service {
	return &Service{Repo: repo, Queue: q}
}

// Save stores an analyzed resume and enqueues a resume.analyzed event.
// Enqueue failures are logged; the saved row is still returned.
func (s *Service) Save(ctx context.Context, in NewResume) (Resume, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return Resume{}, errors.New("user id is required")
	}
	if in.Source != SourcePDF && in.Source != SourceText {
		return Resume{}, fmt.Errorf("invalid source %q", in.Source)
	}
	if in.Score < 0 || in.Score > 100 {
		return Resume{}, fmt.Errorf("score out of range: %d", in.Score)
	}

	res := Resume{
		ID:        s.newID(),
		UserID:    in.UserID,
		Title:     strings.TrimSpace(in.Title),
		Source:    in.Source,
		Score:     in.Score,
		Analysis:  in.Analysis,
		RawText:   in.RawText,
		JobTarget: in.JobTarget,
		CreatedAt: s.now(),
	}
	if err := s.Repo.Create(ctx, res); err != nil {
		return Resume{}, fmt.Errorf("create resume: %w", err)
	}

	telemetry.Info("resume.saved", map[string]any{
		"resume_id":  res.ID,
		"user_id":    res.UserID,
		"score":      res.Score,
		"request_id": in.RequestID,
	})
	s.enqueue(ctx, res, in.RequestID)
	return res, nil
}

func (s *Service) enqueue(ctx context.Context, res Resume, requestID string) {
	if s.Queue == nil {
		return
	}
	msg := queue.Message{
		Event:      queue.EventResumeAnalyzed,
		ResumeID:   res.ID,
		UserID:     res.UserID,
		Score:      res.Score,
		RequestID:  requestID,
		EnqueuedAt: s.now().Format(time.RFC3339),
		Version:    queue.MessageVersion,
	}
	if err := s.Queue.Send(ctx, msg); err != nil {
		telemetry.Error("resume.enqueue_failed", map[string]any{
			"resume_id":  res.ID,
			"request_id": requestID,
			"error":      err.Error(),
		})
	}
}

// Get returns a resume owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (Resume, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Resume{}, ErrNotFound
	}
	return s.Repo.GetByID(ctx, userID, id)
}

// List returns summaries newest first. limit is clamped to [1, MaxListLimit].
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Summary, error) {
	return s.Repo.ListByUser(ctx, userID, ClampLimit(limit), max(offset, 0))
}

// Stats returns aggregate history for userID.
func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	return s.Repo.Stats(ctx, userID)
}

// ClampLimit applies the list defaults.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *Service) newID() string {
	if s.NewID != nil {
		return s.NewID()
	}
	return uuid.NewString()
}
