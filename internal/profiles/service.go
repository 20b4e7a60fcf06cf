package profiles

import (
	"context"
	"errors"
	"strings"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// Get returns the stored profile, or defaults when the user never saved one.
func (s *Service) Get(ctx context.Context, userID, email string) (Profile, error) {
	if s == nil || s.Repo == nil {
		return Profile{}, errors.New("profiles service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return Profile{}, errors.New("user id is required")
	}
	p, err := s.Repo.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return Profile{UserID: userID, Email: email, Notifications: DefaultNotifications()}, nil
	}
	if err != nil {
		return Profile{}, err
	}
	if p.Email == "" {
		p.Email = email
	}
	return p, nil
}

// Update stores the editable fields and returns the saved profile.
func (s *Service) Update(ctx context.Context, p Profile) (Profile, error) {
	if s == nil || s.Repo == nil {
		return Profile{}, errors.New("profiles service not configured")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return Profile{}, errors.New("user id is required")
	}
	p.FullName = strings.TrimSpace(p.FullName)
	p.JobTitle = strings.TrimSpace(p.JobTitle)
	if err := s.Repo.Upsert(ctx, p); err != nil {
		return Profile{}, err
	}
	return s.Repo.GetByID(ctx, p.UserID)
}
