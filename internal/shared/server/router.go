package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suiscode/ai-resume/internal/analysis"
	googleauth "github.com/suiscode/ai-resume/internal/auth"
	"github.com/suiscode/ai-resume/internal/chat"
	"github.com/suiscode/ai-resume/internal/dashboard"
	"github.com/suiscode/ai-resume/internal/extract"
	"github.com/suiscode/ai-resume/internal/profiles"
	"github.com/suiscode/ai-resume/internal/resumes"
	"github.com/suiscode/ai-resume/internal/shared/config"
	"github.com/suiscode/ai-resume/internal/shared/metrics"
	"github.com/suiscode/ai-resume/internal/shared/server/middleware"
	"github.com/suiscode/ai-resume/internal/shared/server/respond"
	"github.com/suiscode/ai-resume/internal/supabase"
)

const llmRateGroup = "LLM"

// RouterDeps carries the handlers the router mounts. Nil handlers are skipped.
type RouterDeps struct {
	Config   config.Config
	Verifier middleware.TokenVerifier
	Limiter  middleware.Limiter

	AnalysisHandler  *analysis.Handler
	ChatHandler      *chat.Handler
	ExtractHandler   *extract.Handler
	ResumesHandler   *resumes.Handler
	ProfileHandler   *profiles.Handler
	DashboardHandler *dashboard.Handler
	SupabaseHandler  *supabase.Handler
	GoogleAuth       *googleauth.GoogleService
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		metrics.Middleware(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.Auth(deps.Verifier),
		middleware.RateLimit(middleware.RateLimitOptions{
			Rules: map[string]middleware.Rule{
				llmRateGroup: {Rate: deps.Config.RateLimitRPS, Burst: deps.Config.RateLimitBurst},
			},
			Group:   rateGroup,
			Limiter: deps.Limiter,
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	registerMeRoutes(api)

	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(api)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(api)
	}
	if deps.ExtractHandler != nil {
		deps.ExtractHandler.RegisterRoutes(api)
	}
	if deps.SupabaseHandler != nil {
		deps.SupabaseHandler.RegisterRoutes(api)
	}
	if deps.GoogleAuth != nil {
		deps.GoogleAuth.RegisterRoutes(api)
	}

	private := api.Group("", middleware.RequireUser())
	if deps.ResumesHandler != nil {
		deps.ResumesHandler.RegisterRoutes(private)
	}
	if deps.ProfileHandler != nil {
		deps.ProfileHandler.RegisterRoutes(private)
	}
	if deps.DashboardHandler != nil {
		deps.DashboardHandler.RegisterRoutes(private)
	}

	return r
}

// rateGroup puts the LLM and PDF endpoints under the configured limit.
func rateGroup(c *gin.Context) string {
	if c.Request.Method != http.MethodPost {
		return ""
	}
	switch strings.TrimSuffix(c.Request.URL.Path, "/") {
	case "/api/analyze", "/api/chat", "/api/extract":
		return llmRateGroup
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
