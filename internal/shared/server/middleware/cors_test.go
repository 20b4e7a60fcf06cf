package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(origins ...string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS(origins))
	r.POST("/api/analyze", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	return r
}

func corsRequest(r http.Handler, method, origin string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/api/analyze", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCORSListedOrigin(t *testing.T) {
	r := corsRouter("http://localhost:3000", "https://app.example.com/")

	for _, method := range []string{http.MethodOptions, http.MethodPost} {
		w := corsRequest(r, method, "https://app.example.com")
		if method == http.MethodOptions {
			assert.Equal(t, http.StatusNoContent, w.Code)
		} else {
			assert.Equal(t, http.StatusOK, w.Code)
		}
		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Equal(t, corsAllowMethods, w.Header().Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))
		assert.Equal(t, "Origin", w.Header().Get("Vary"))
	}
}

func TestCORSUnknownOriginGetsNoHeaders(t *testing.T) {
	w := corsRequest(corsRouter("http://localhost:3000"), http.MethodPost, "http://evil.test")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSPreflightWithoutOrigin(t *testing.T) {
	w := corsRequest(corsRouter("http://localhost:3000"), http.MethodOptions, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	w := corsRequest(corsRouter("*"), http.MethodPost, "http://anywhere.test")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestOriginPolicySubdomainWildcard(t *testing.T) {
	p := newOriginPolicy([]string{"https://*.vercel.app"})
	cases := map[string]bool{
		"https://resume-git-main.vercel.app": true,
		"https://vercel.app":                 false,
		"https://a.b.vercel.app":             false,
		"http://preview.vercel.app":          false,
		"https://evilvercel.app":             false,
	}
	for origin, want := range cases {
		got, creds := p.allow(origin)
		assert.Equal(t, want, got, origin)
		assert.Equal(t, want, creds, origin)
	}
}
