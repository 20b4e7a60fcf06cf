// Package apiclient calls the resume API over HTTP with client-side retries.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

const (
	DefaultMaxRetries  = 2
	DefaultBackoffBase = 500 * time.Millisecond

	pdfContentType = "application/pdf"
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// AnalyzeRequest mirrors the POST /api/analyze body.
type AnalyzeRequest struct {
	NormalizedResumeText string `json:"normalizedResumeText"`
	JobTarget            string `json:"jobTarget,omitempty"`
	Title                string `json:"title,omitempty"`
	Source               string `json:"source,omitempty"`
}

// AnalyzeResponse mirrors the POST /api/analyze result.
type AnalyzeResponse struct {
	OverallScore int      `json:"overallScore"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Suggestions  []string `json:"suggestions"`
	KeywordGaps  []string `json:"keywordGaps"`
	ResumeID     string   `json:"resumeId,omitempty"`
}

type extractResponse struct {
	NormalizedResumeText string `json:"normalizedResumeText"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client talks to a running API. Only 5xx responses are retried, with
// linear backoff attempt*BackoffBase.
type Client struct {
	BaseURL     string
	Token       string
	HTTP        *http.Client
	MaxRetries  uint64
	BackoffBase time.Duration
}

// New builds a Client with default retry settings.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		Token:       strings.TrimSpace(token),
		HTTP:        &http.Client{Timeout: 60 * time.Second},
		MaxRetries:  DefaultMaxRetries,
		BackoffBase: DefaultBackoffBase,
	}
}

// Analyze posts resume text to /api/analyze.
func (c *Client) Analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	var out AnalyzeResponse
	err = c.do(ctx, "/api/analyze", func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/analyze", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/json")
		return r, nil
	}, &out)
	return out, err
}

// Extract uploads a PDF to /api/extract and returns the normalized text.
func (c *Client) Extract(ctx context.Context, fileName string, pdf []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", mime.FormatMediaType("form-data", map[string]string{
		"name":     "file",
		"filename": filepath.Base(fileName),
	}))
	h.Set("Content-Type", pdfContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(pdf); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	payload := buf.Bytes()

	var out extractResponse
	err = c.do(ctx, "/api/extract", func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/api/extract", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", mw.FormDataContentType())
		return r, nil
	}, &out)
	return out.NormalizedResumeText, err
}

func (c *Client) do(ctx context.Context, path string, build func() (*http.Request, error), out any) error {
	attempt := 0
	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		attempt++
		req, err := build()
		if err != nil {
			return err
		}
		if c.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Token)
		}
		resp, err := c.httpClient().Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return json.Unmarshal(raw, out)
		}

		apiErr := decodeError(resp.StatusCode, raw)
		if resp.StatusCode >= 500 {
			telemetry.Warn("apiclient.retryable", map[string]any{
				"path":    path,
				"attempt": attempt,
				"status":  resp.StatusCode,
				"code":    apiErr.Code,
			})
			return retry.RetryableError(apiErr)
		}
		return apiErr
	})
}

func (c *Client) backoff() retry.Backoff {
	base := c.BackoffBase
	if base <= 0 {
		base = DefaultBackoffBase
	}
	var n int64
	linear := retry.BackoffFunc(func() (time.Duration, bool) {
		n++
		return time.Duration(n) * base, false
	})
	return retry.WithMaxRetries(c.MaxRetries, linear)
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func decodeError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Message != "" {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		return apiErr
	}
	// rate limiter body: {"error":"rate_limited","retryAfterMs":...}
	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &flat); err == nil && flat.Error != "" {
		apiErr.Code = flat.Error
	}
	return apiErr
}
