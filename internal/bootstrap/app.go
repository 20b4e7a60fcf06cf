package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/suiscode/ai-resume/internal/analysis"
	googleauth "github.com/suiscode/ai-resume/internal/auth"
	"github.com/suiscode/ai-resume/internal/chat"
	"github.com/suiscode/ai-resume/internal/dashboard"
	"github.com/suiscode/ai-resume/internal/extract"
	"github.com/suiscode/ai-resume/internal/llm"
	"github.com/suiscode/ai-resume/internal/llm/gemini"
	"github.com/suiscode/ai-resume/internal/llm/openai"
	"github.com/suiscode/ai-resume/internal/notify"
	"github.com/suiscode/ai-resume/internal/profiles"
	"github.com/suiscode/ai-resume/internal/queue"
	"github.com/suiscode/ai-resume/internal/resumes"
	"github.com/suiscode/ai-resume/internal/shared/auth"
	"github.com/suiscode/ai-resume/internal/shared/config"
	"github.com/suiscode/ai-resume/internal/shared/server"
	"github.com/suiscode/ai-resume/internal/shared/server/middleware"
	"github.com/suiscode/ai-resume/internal/shared/storage/db"
	"github.com/suiscode/ai-resume/internal/shared/storage/object"
	localstore "github.com/suiscode/ai-resume/internal/shared/storage/object/local"
	s3store "github.com/suiscode/ai-resume/internal/shared/storage/object/s3"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
	"github.com/suiscode/ai-resume/internal/supabase"
)

const supabaseAudience = "authenticated"

// App holds shared dependencies for the HTTP and worker binaries.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	DB      *sql.DB
	Store   object.ObjectStore
	Queue   queue.Client
	Redis   *redis.Client
	LLM     llm.Client
	Limiter middleware.Limiter

	ResumesRepo  resumes.Repo
	ProfilesRepo profiles.Repo

	AnalysisService  *analysis.Service
	ChatService      *chat.Service
	Extractor        *extract.Extractor
	ResumesService   *resumes.Service
	ProfilesService  *profiles.Service
	DashboardService *dashboard.Service
	Supabase         *supabase.Client
	Notifier         *notify.Service
	GoogleAuth       *googleauth.GoogleService

	closers []func() error
}

// Build prepares shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	telemetry.SetLevel(cfg.LogLevel)
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
	}
	if sqlDB != nil {
		app.closers = append(app.closers, sqlDB.Close)
	}

	app.Limiter = buildLimiter(app)

	if err := buildLLM(ctx, app); err != nil {
		return nil, err
	}
	buildServices(app)

	app.Router = server.NewRouter(app.routerDeps())
	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	role := db.DetectRole()
	opts := db.PoolOptions(role)
	var (
		sqlDB *sql.DB
		err   error
	)
	if role == db.RoleLambda {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, opts)
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		awsCfg, err := queue.LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, err
		}
		return s3store.New(awsCfg, s3store.Options{Bucket: cfg.S3Bucket, Prefix: cfg.S3Prefix, KMSKeyID: cfg.SSEKMSKeyID})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.QueueURL) == "" {
		return nil, nil
	}
	awsCfg, err := queue.LoadAWSConfig(ctx, cfg.AWSRegion)
	if err != nil {
		return nil, err
	}
	return queue.NewSQS(awsCfg, cfg.QueueURL)
}

// buildLimiter shares buckets through Redis when REDIS_URL is set.
func buildLimiter(app *App) middleware.Limiter {
	raw := strings.TrimSpace(app.Config.RedisURL)
	if raw == "" {
		return middleware.NewLocalLimiter(nil)
	}
	opts, err := redis.ParseURL(raw)
	if err != nil {
		telemetry.Error("bootstrap.redis_invalid", map[string]any{"error": err.Error()})
		return middleware.NewLocalLimiter(nil)
	}
	client := redis.NewClient(opts)
	app.Redis = client
	app.closers = append(app.closers, client.Close)
	return middleware.NewRedisLimiter(client, "ratelimit:")
}

// buildLLM leaves App.LLM nil when the selected provider has no key;
// requests then fail with config_error instead of the boot failing.
func buildLLM(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.LLMProvider {
	case "openai":
		client, err := openai.New(openai.Options{APIKey: cfg.OpenAIAPIKey, Model: cfg.OpenAIModel})
		if errors.Is(err, llm.ErrNotConfigured) {
			telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": "openai"})
			return nil
		}
		if err != nil {
			return err
		}
		app.LLM = client
	default:
		client, err := gemini.New(ctx, cfg.GeminiAPIKey)
		if errors.Is(err, llm.ErrNotConfigured) {
			telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"provider": "gemini"})
			return nil
		}
		if err != nil {
			return err
		}
		app.LLM = client
		app.closers = append(app.closers, client.Close)
	}
	return nil
}

func buildServices(app *App) {
	cfg := app.Config
	if app.DB != nil {
		app.ResumesRepo = &resumes.PGRepo{DB: app.DB}
		app.ProfilesRepo = &profiles.PGRepo{DB: app.DB}
	} else {
		app.ResumesRepo = resumes.NewMemoryRepo()
		app.ProfilesRepo = profiles.NewMemoryRepo()
	}

	app.AnalysisService = analysis.NewService(app.LLM, cfg.GeminiModel, cfg.LLMTimeout)
	app.ChatService = chat.NewService(app.LLM, cfg.GeminiChatModel, cfg.LLMTimeout)
	app.Extractor = extract.New()
	app.ResumesService = resumes.NewService(app.ResumesRepo, app.Queue)
	app.ProfilesService = profiles.NewService(app.ProfilesRepo)
	app.DashboardService = dashboard.NewService(app.ResumesService, app.ProfilesService)
	app.Notifier = notify.NewService(app.ProfilesService, notify.LogSender{})
	app.Supabase = supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey, &http.Client{Timeout: 15 * time.Second})
	googleOpts := googleauth.GoogleOptions{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		UIRedirect:   cfg.UIRedirectURL,
	}
	if app.Redis != nil {
		googleOpts.States = googleauth.NewRedisStates(app.Redis)
	}
	app.GoogleAuth = googleauth.NewGoogleService(googleOpts, app.Supabase)
}

func (a *App) routerDeps() server.RouterDeps {
	var archive object.ObjectStore
	if a.Config.ArchiveUploads {
		archive = a.Store
	}
	var verifier middleware.TokenVerifier
	if v := auth.NewVerifier(a.Config.SupabaseJWTSecret, supabaseAudience); v.Configured() {
		verifier = v
	} else {
		telemetry.Warn("bootstrap.auth_unconfigured", map[string]any{"reason": "SUPABASE_JWT_SECRET empty"})
	}

	return server.RouterDeps{
		Config:           a.Config,
		Verifier:         verifier,
		Limiter:          a.Limiter,
		AnalysisHandler:  analysis.NewHandler(a.AnalysisService, a.ResumesService),
		ChatHandler:      chat.NewHandler(a.ChatService),
		ExtractHandler:   extract.NewHandler(a.Extractor, archive),
		ResumesHandler:   resumes.NewHandler(a.ResumesService),
		ProfileHandler:   profiles.NewHandler(a.ProfilesService),
		DashboardHandler: dashboard.NewHandler(a.DashboardService),
		SupabaseHandler:  supabase.NewHandler(a.Supabase),
		GoogleAuth:       a.GoogleAuth,
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
