package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiscode/ai-resume/internal/llm"
	"github.com/suiscode/ai-resume/internal/resumes"
)

func newRouter(client llm.Client, saver ResumeSaver, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("userId", userID)
		}
		c.Next()
	})
	NewHandler(NewService(client, "", 0), saver).RegisterRoutes(r.Group("/api"))
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func validBody(extra string) string {
	text := strings.Repeat("experienced engineer ", 15)
	return `{"normalizedResumeText":"` + text + `"` + extra + `}`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestAnalyzeSuccess(t *testing.T) {
	w := post(newRouter(&fakeLLM{out: validOutput}, nil, ""), validBody(`,"jobTarget":" SRE "`))
	require.Equal(t, http.StatusOK, w.Code)

	var got Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 74, got.OverallScore)
	assert.Equal(t, []string{"Kubernetes"}, got.KeywordGaps)
	assert.NotContains(t, w.Body.String(), "resumeId")
}

func TestAnalyzeRequestErrors(t *testing.T) {
	router := newRouter(&fakeLLM{out: validOutput}, nil, "")

	w := post(router, `{"normalizedResumeText":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_json", decodeError(t, w).Error.Code)

	w = post(router, `{"normalizedResumeText":"   short   "}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	env := decodeError(t, w)
	assert.Equal(t, "validation_error", env.Error.Code)
	assert.Equal(t, "Invalid request payload.", env.Error.Message)
	assert.Contains(t, w.Body.String(), `"field":"normalizedResumeText"`)

	w = post(router, validBody(`,"jobTarget":"x"`))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = post(router, `{"normalizedResumeText":123}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "validation_error", decodeError(t, w).Error.Code)
	assert.Contains(t, w.Body.String(), `{"field":"normalizedResumeText","issue":"must be a string"}`)
}

func TestAnalyzeProviderErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		client  llm.Client
		status  int
		code    string
		message string
	}{
		{"missing key", nil, http.StatusInternalServerError, "config_error", "Server configuration error. Please contact support."},
		{"429", &fakeLLM{err: &llm.ProviderError{Status: 429}}, http.StatusTooManyRequests, "rate_limited", Messages.RateLimited},
		{"400", &fakeLLM{err: &llm.ProviderError{Status: 400, Message: "bad"}}, http.StatusBadRequest, "provider_rejected", Messages.Rejected},
		{"500", &fakeLLM{err: &llm.ProviderError{Status: 500}}, http.StatusBadGateway, "provider_error", Messages.Provider},
		{"empty", &fakeLLM{out: ""}, http.StatusBadGateway, "empty_output", Messages.Empty},
		{"malformed", &fakeLLM{out: `{"overallScore":"high"}`}, http.StatusBadGateway, "malformed_output", Messages.Malformed},
		{"timeout", &fakeLLM{err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "timeout", Messages.Timeout},
		{"unknown", &fakeLLM{err: errors.New("boom")}, http.StatusInternalServerError, "internal_error", Messages.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(newRouter(tt.client, nil, ""), validBody(""))
			assert.Equal(t, tt.status, w.Code)
			env := decodeError(t, w)
			assert.Equal(t, tt.code, env.Error.Code)
			assert.Equal(t, tt.message, env.Error.Message)
		})
	}
}

func TestAnalyzeSavesForSignedInUser(t *testing.T) {
	svc := resumes.NewService(resumes.NewMemoryRepo(), nil)
	router := newRouter(&fakeLLM{out: validOutput}, svc, "user-1")

	w := post(router, validBody(`,"title":"My CV","source":"text"`))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		ResumeID string `json:"resumeId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.ResumeID)

	saved, err := svc.Get(context.Background(), "user-1", body.ResumeID)
	require.NoError(t, err)
	assert.Equal(t, 74, saved.Score)
	assert.JSONEq(t, validOutput, string(saved.Analysis))
}

func TestAnalyzeSkipsSaveForAnonymous(t *testing.T) {
	repo := resumes.NewMemoryRepo()
	router := newRouter(&fakeLLM{out: validOutput}, resumes.NewService(repo, nil), "")

	w := post(router, validBody(`,"title":"My CV","source":"text"`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "resumeId")
}
