package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suiscode/ai-resume/internal/llm"
)

type fakeLLM struct {
	out string
	err error
	req llm.Request
}

func (f *fakeLLM) Provider() string { return "fake" }

func (f *fakeLLM) Generate(ctx context.Context, req llm.Request) (string, error) {
	f.req = req
	return f.out, f.err
}

func newRouter(client llm.Client) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(NewService(client, "", 0)).RegisterRoutes(r.Group("/api"))
	return r
}

func post(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestBuildPromptWithoutContext(t *testing.T) {
	got := buildPrompt([]Message{{Role: "user", Content: "Hi"}, {Role: "assistant", Content: "Hello"}}, nil)
	want := strings.Join([]string{
		"You are an expert resume coach.",
		"Give practical, specific, concise guidance.",
		"Prefer rewrite-ready suggestions and measurable outcomes.",
		"If asked to rewrite content, provide improved examples.",
		"Resume context: none provided.",
		"Conversation transcript:",
		"User: Hi\nAssistant: Hello",
		"Now provide your next assistant reply only.",
	}, "\n\n")
	assert.Equal(t, want, got)
}

func TestContextBlock(t *testing.T) {
	score := 72.0
	title := "Backend CV"
	got := contextBlock(&ResumeContext{
		Title:       &title,
		Score:       &score,
		Weaknesses:  []string{"a", "b"},
		Suggestions: []string{"c"},
		ResumeText:  "excerpt",
	})
	assert.Equal(t, "Resume context:\nResume title: Backend CV\n\nLatest score: 72/100\n\nKnown weaknesses:\n- a\n- b\n\nKnown suggestions:\n- c\n\nResume text excerpt:\nexcerpt", got)
	assert.Equal(t, "Resume context: none provided.", contextBlock(&ResumeContext{}))
}

func TestChatSuccess(t *testing.T) {
	fake := &fakeLLM{out: `{"reply":"Add metrics to each bullet."}`}
	w := post(newRouter(fake), `{"messages":[{"role":"user","content":"How do I improve?"}],"resumeContext":{"title":"CV","score":55}}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Add metrics to each bullet.", got.Reply)
	assert.Equal(t, DefaultModel, fake.req.Model)
	assert.EqualValues(t, 700, fake.req.MaxOutputTokens)
	assert.InDelta(t, 0.4, fake.req.Temperature, 0.0001)
	assert.Contains(t, fake.req.Prompt, "Latest score: 55/100")
}

func TestChatValidation(t *testing.T) {
	router := newRouter(&fakeLLM{out: `{"reply":"x"}`})

	cases := map[string]string{
		"no messages":   `{"messages":[]}`,
		"bad role":      `{"messages":[{"role":"system","content":"x"}]}`,
		"empty content": `{"messages":[{"role":"user","content":""}]}`,
		"empty title":   `{"messages":[{"role":"user","content":"x"}],"resumeContext":{"title":""}}`,
		"content type":  `{"messages":[{"role":"user","content":123}]}`,
		"float score":   `{"messages":[{"role":"user","content":"x"}],"resumeContext":{"score":55.5}}`,
		"score range":   `{"messages":[{"role":"user","content":"x"}],"resumeContext":{"score":101}}`,
		"too many tips": `{"messages":[{"role":"user","content":"x"}],"resumeContext":{"suggestions":["1","2","3","4","5","6","7","8","9","10","11"]}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, http.StatusUnprocessableEntity, post(router, body).Code)
		})
	}

	tooMany := make([]string, 21)
	for i := range tooMany {
		tooMany[i] = `{"role":"user","content":"x"}`
	}
	assert.Equal(t, http.StatusUnprocessableEntity, post(router, `{"messages":[`+strings.Join(tooMany, ",")+`]}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(router, `nope`).Code)
}

func TestChatKeepsRawValues(t *testing.T) {
	fake := &fakeLLM{out: `{"reply":"ok"}`}
	w := post(newRouter(fake), `{"messages":[{"role":"user","content":"   "}],"resumeContext":{"title":" CV "}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, fake.req.Prompt, "Resume title:  CV ")
	assert.Contains(t, fake.req.Prompt, "User:    ")
}

func TestChatErrorMessages(t *testing.T) {
	tests := []struct {
		name    string
		client  *fakeLLM
		status  int
		message string
	}{
		{"rate", &fakeLLM{err: &llm.ProviderError{Status: 429}}, http.StatusTooManyRequests, Messages.RateLimited},
		{"provider", &fakeLLM{err: &llm.ProviderError{Status: 502}}, http.StatusBadGateway, "Unable to generate chat response right now."},
		{"empty", &fakeLLM{out: `{"reply":"   "}`}, http.StatusBadGateway, "AI service returned an empty response."},
		{"malformed", &fakeLLM{out: `{"answer":"x"}`}, http.StatusBadGateway, "AI service returned malformed chat output."},
		{"timeout", &fakeLLM{err: context.DeadlineExceeded}, http.StatusGatewayTimeout, "AI chat timed out. Please try again."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(newRouter(tt.client), `{"messages":[{"role":"user","content":"hi"}]}`)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), tt.message)
		})
	}
}
