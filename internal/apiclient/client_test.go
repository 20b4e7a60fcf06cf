package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiscode/ai-resume/internal/extract"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := New(srv.URL+"/", "tok")
	c.BackoffBase = time.Millisecond
	return c
}

func TestAnalyzeSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req AnalyzeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "backend", req.JobTarget)
		_, _ = io.WriteString(w, `{"overallScore":72,"strengths":["a"],"weaknesses":["b"],"suggestions":["c"],"keywordGaps":[]}`)
	})

	out, err := c.Analyze(context.Background(), AnalyzeRequest{NormalizedResumeText: "text", JobTarget: "backend"})
	require.NoError(t, err)
	assert.Equal(t, 72, out.OverallScore)
	assert.Equal(t, []string{"a"}, out.Strengths)
}

func TestAnalyzeRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = io.WriteString(w, `{"error":{"code":"provider_error","message":"Failed to analyze resume at this time."}}`)
			return
		}
		_, _ = io.WriteString(w, `{"overallScore":50,"strengths":[],"weaknesses":[],"suggestions":[],"keywordGaps":[]}`)
	})

	out, err := c.Analyze(context.Background(), AnalyzeRequest{NormalizedResumeText: "text"})
	require.NoError(t, err)
	assert.Equal(t, 50, out.OverallScore)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestAnalyzeGivesUpAfterTwoRetries(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusGatewayTimeout)
		_, _ = io.WriteString(w, `{"error":{"code":"timeout","message":"AI analysis timed out. Please try again."}}`)
	})

	_, err := c.Analyze(context.Background(), AnalyzeRequest{NormalizedResumeText: "text"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusGatewayTimeout, apiErr.Status)
	assert.Equal(t, "timeout", apiErr.Code)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
}

func TestAnalyzeDoesNotRetryClientErrors(t *testing.T) {
	for _, status := range []int{http.StatusUnprocessableEntity, http.StatusTooManyRequests} {
		var calls int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `{"error":{"code":"validation_error","message":"Invalid request payload."}}`)
		})

		_, err := c.Analyze(context.Background(), AnalyzeRequest{})
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, status, apiErr.Status)
		assert.Equal(t, "Invalid request payload.", apiErr.Message)
		assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	}
}

func TestExtractUploadsMultipart(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/extract", r.URL.Path)
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "cv.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.4", string(data))
		_, _ = io.WriteString(w, `{"normalizedResumeText":"hello"}`)
	})

	text, err := c.Extract(context.Background(), "/tmp/cv.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestExtractAgainstExtractHandler(t *testing.T) {
	text := strings.Repeat("Led a platform team shipping payments APIs. ", 10)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	parse := func(data []byte) (string, int, error) { return text, 1, nil }
	extract.NewHandler(&extract.Extractor{Parse: parse}, nil).RegisterRoutes(r.Group("/api"))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	got, err := New(srv.URL, "").Extract(context.Background(), "cv.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(text), got)
}

func TestDecodeErrorRateLimitBody(t *testing.T) {
	err := decodeError(http.StatusTooManyRequests, []byte(`{"error":"rate_limited","retryAfterMs":1000}`))
	assert.Equal(t, "rate_limited", err.Code)
	assert.Equal(t, "Too Many Requests", err.Message)
}
