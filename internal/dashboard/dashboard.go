package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/suiscode/ai-resume/internal/profiles"
	"github.com/suiscode/ai-resume/internal/resumes"
	"github.com/suiscode/ai-resume/internal/shared/server/middleware"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
)

const recentLimit = 5

// ResumeReader is the resume history the overview needs.
type ResumeReader interface {
	Stats(ctx context.Context, userID string) (resumes.Stats, error)
	List(ctx context.Context, userID string, limit, offset int) ([]resumes.Summary, error)
}

// ProfileReader loads the caller's profile.
type ProfileReader interface {
	Get(ctx context.Context, userID, email string) (profiles.Profile, error)
}

// Overview is the dashboard payload.
type Overview struct {
	FullName        string            `json:"fullName"`
	AverageScore    *int              `json:"averageScore"`
	ResumesReviewed int               `json:"resumesReviewed"`
	LastReview      *time.Time        `json:"lastReview"`
	Recent          []resumes.Summary `json:"recent"`
}

type Service struct {
	Resumes  ResumeReader
	Profiles ProfileReader
}

func NewService(r ResumeReader, p ProfileReader) *Service {
	return &Service{Resumes: r, Profiles: p}
}

// Overview loads stats, recent rows and the profile concurrently.
func (s *Service) Overview(ctx context.Context, userID, email string) (Overview, error) {
	var (
		stats   resumes.Stats
		recent  []resumes.Summary
		profile profiles.Profile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.Resumes.Stats(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		recent, err = s.Resumes.List(gctx, userID, recentLimit, 0)
		return err
	})
	g.Go(func() error {
		var err error
		profile, err = s.Profiles.Get(gctx, userID, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	out := Overview{
		FullName:        profile.FullName,
		ResumesReviewed: stats.Count,
		LastReview:      stats.LastReview,
		Recent:          recent,
	}
	if out.Recent == nil {
		out.Recent = []resumes.Summary{}
	}
	if stats.Count > 0 && stats.AverageScore != nil {
		avg := int(math.Round(*stats.AverageScore))
		out.AverageScore = &avg
	}
	return out, nil
}

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches dashboard routes. Callers must require a user.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard/overview", h.overview)
}

func (h *Handler) overview(c *gin.Context) {
	out, err := h.Svc.Overview(c.Request.Context(), middleware.UserIDFromContext(c), middleware.UserEmailFromContext(c))
	if err != nil {
		respond.Internal(c, "Failed to load dashboard.", err)
		return
	}
	respond.OK(c, out)
}
