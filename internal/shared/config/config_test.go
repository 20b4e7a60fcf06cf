package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("LLM_TIMEOUT", "")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("OBJECT_STORE", "")
	t.Setenv("WORKER_CONCURRENCY", "")
	t.Setenv("SQS_VISIBILITY_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "gemini-2.0-flash", cfg.GeminiModel)
	assert.Equal(t, 20*time.Second, cfg.LLMTimeout)
	assert.Equal(t, "local", cfg.ObjectStoreType)
	assert.Equal(t, 4, cfg.WorkerConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.QueueVisibility)
}

func TestLoadSupabaseFallsBackToPublicEnv(t *testing.T) {
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_ANON_KEY", "")
	t.Setenv("NEXT_PUBLIC_SUPABASE_URL", "https://example.supabase.co/")
	t.Setenv("NEXT_PUBLIC_SUPABASE_ANON_KEY", "anon")

	cfg := Load()

	assert.Equal(t, "https://example.supabase.co", cfg.SupabaseURL)
	assert.Equal(t, "anon", cfg.SupabaseAnonKey)
	assert.True(t, cfg.SupabaseConfigured())
}

func TestLoadInvalidValuesKeepDefaults(t *testing.T) {
	t.Setenv("LLM_TIMEOUT", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")
	t.Setenv("ENV", "PROD")

	cfg := Load()

	assert.Equal(t, 20*time.Second, cfg.LLMTimeout)
	assert.Equal(t, 10, cfg.RateLimitBurst)
	assert.Equal(t, "production", cfg.Env)
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" http://a.test , ,http://b.test")
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, got)
}
