package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/suiscode/ai-resume/internal/profiles"
	"github.com/suiscode/ai-resume/internal/queue"
	"github.com/suiscode/ai-resume/internal/resumes"
	"github.com/suiscode/ai-resume/internal/shared/metrics"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

// Email is a rendered notification.
type Email struct {
	To       string
	Subject  string
	Body     string
	ResumeID string
}

// Sender delivers notifications.
type Sender interface {
	Send(ctx context.Context, email Email) error
}

// LogSender writes notifications to the structured log instead of delivering them.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, email Email) error {
	telemetry.Info("notify.email", map[string]any{
		"to":        email.To,
		"subject":   email.Subject,
		"resume_id": email.ResumeID,
	})
	return nil
}

// ProfileReader loads notification preferences.
type ProfileReader interface {
	Get(ctx context.Context, userID, email string) (profiles.Profile, error)
}

// Service reacts to resume.analyzed events.
type Service struct {
	Profiles ProfileReader
	Sender   Sender
}

func NewService(p ProfileReader, sender Sender) *Service {
	if sender == nil {
		sender = LogSender{}
	}
	return &Service{Profiles: p, Sender: sender}
}

// Outcome values reported to metrics.
const (
	OutcomeSent     = "sent"
	OutcomeOptedOut = "opted_out"
	OutcomeNoEmail  = "no_email"
	OutcomeFailed   = "failed"
)

// Process handles one decoded message.
func (s *Service) Process(ctx context.Context, msg queue.Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	if s.Profiles == nil {
		return "", errors.New("profiles not configured")
	}
	profile, err := s.Profiles.Get(ctx, msg.UserID, "")
	if err != nil {
		metrics.IncNotification(OutcomeFailed)
		return OutcomeFailed, fmt.Errorf("load profile: %w", err)
	}
	if !profile.Notifications.EmailNotifications {
		metrics.IncNotification(OutcomeOptedOut)
		return OutcomeOptedOut, nil
	}
	if profile.Email == "" {
		metrics.IncNotification(OutcomeNoEmail)
		return OutcomeNoEmail, nil
	}

	email := render(profile, msg)
	if err := s.Sender.Send(ctx, email); err != nil {
		metrics.IncNotification(OutcomeFailed)
		return OutcomeFailed, fmt.Errorf("send notification: %w", err)
	}
	metrics.IncNotification(OutcomeSent)
	return OutcomeSent, nil
}

func render(p profiles.Profile, msg queue.Message) Email {
	name := p.FullName
	if name == "" {
		name = "there"
	}
	return Email{
		To:       p.Email,
		Subject:  fmt.Sprintf("Your resume scored %d/100", msg.Score),
		ResumeID: msg.ResumeID,
		Body: fmt.Sprintf("Hi %s,\n\nYour resume review is ready. Score: %d/100 (%s).\nOpen the app to see strengths, weaknesses and suggestions.",
			name, msg.Score, resumes.ScoreBand(msg.Score)),
	}
}
