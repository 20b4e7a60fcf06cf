package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"github.com/suiscode/ai-resume/internal/shared/config"
	"github.com/suiscode/ai-resume/internal/shared/storage/db"
	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	if err := db.Migrate(context.Background(), cfg.DatabaseURL); err != nil {
		telemetry.Error("db.migrate_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
