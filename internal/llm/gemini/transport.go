package gemini

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 64 << 10

// upstreamError is a provider 5xx turned into a transport error. The SDK
// retries only *googleapi.Error values, so this one reaches the caller as is.
type upstreamError struct {
	Status  int
	Message string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("gemini upstream status=%d: %s", e.Status, e.Message)
}

// noRetryTransport authenticates with the API key header and short-circuits
// server errors.
type noRetryTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *noRetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("x-goog-api-key", t.apiKey)

	resp, err := t.base.RoundTrip(req)
	if err != nil || resp.StatusCode < http.StatusInternalServerError {
		return resp, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return nil, &upstreamError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, raw)}
}

func errorMessage(status int, raw []byte) string {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && strings.TrimSpace(body.Error.Message) != "" {
		return strings.TrimSpace(body.Error.Message)
	}
	return http.StatusText(status)
}
