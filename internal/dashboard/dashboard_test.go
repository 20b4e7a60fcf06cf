package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiscode/ai-resume/internal/profiles"
	"github.com/suiscode/ai-resume/internal/resumes"
)

func TestOverviewEmptyHistory(t *testing.T) {
	svc := NewService(resumes.NewService(resumes.NewMemoryRepo(), nil), profiles.NewService(profiles.NewMemoryRepo()))

	out, err := svc.Overview(context.Background(), "u", "")
	require.NoError(t, err)
	assert.Nil(t, out.AverageScore)
	assert.Nil(t, out.LastReview)
	assert.Equal(t, 0, out.ResumesReviewed)
	assert.NotNil(t, out.Recent)
}

func TestOverviewAggregates(t *testing.T) {
	rs := resumes.NewService(resumes.NewMemoryRepo(), nil)
	for _, score := range []int{70, 81, 90, 55, 64, 77} {
		_, err := rs.Save(context.Background(), resumes.NewResume{UserID: "u", Title: "t", Source: resumes.SourceText, Score: score})
		require.NoError(t, err)
	}
	ps := profiles.NewService(profiles.NewMemoryRepo())
	_, err := ps.Update(context.Background(), profiles.Profile{UserID: "u", FullName: "Ada"})
	require.NoError(t, err)

	out, err := NewService(rs, ps).Overview(context.Background(), "u", "")
	require.NoError(t, err)
	require.NotNil(t, out.AverageScore)
	assert.Equal(t, 73, *out.AverageScore)
	assert.Equal(t, 6, out.ResumesReviewed)
	assert.Len(t, out.Recent, 5)
	assert.NotNil(t, out.LastReview)
	assert.Equal(t, "Ada", out.FullName)
}

type failingResumes struct{}

func (failingResumes) Stats(ctx context.Context, userID string) (resumes.Stats, error) {
	return resumes.Stats{}, errors.New("db down")
}

func (failingResumes) List(ctx context.Context, userID string, limit, offset int) ([]resumes.Summary, error) {
	return nil, nil
}

func TestOverviewHandlerFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(failingResumes{}, profiles.NewService(profiles.NewMemoryRepo()))).RegisterRoutes(r.Group("/api"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard/overview", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
