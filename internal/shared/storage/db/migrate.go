package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrationLockID keys the session advisory lock held while migrating.
const migrationLockID int64 = 0x6169726573756d65

var gooseInit sync.Once

func setupGoose() error {
	var err error
	gooseInit.Do(func() {
		goose.SetBaseFS(migrationFiles)
		goose.SetLogger(gooseLogger{})
		err = goose.SetDialect("postgres")
	})
	return err
}

// RunMigrations applies the embedded migrations. Concurrent callers against
// the same database are serialized by a Postgres advisory lock. A nil
// database is a no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	if err := setupGoose(); err != nil {
		return err
	}
	return withAdvisoryLock(ctx, database, migrationLockID, func() error {
		if err := goose.UpContext(ctx, database, "migrations"); err != nil {
			return fmt.Errorf("goose up: %w", err)
		}
		return nil
	})
}

// MigrationStatus returns the applied schema version.
func MigrationStatus(ctx context.Context, database *sql.DB) (int64, error) {
	if database == nil {
		return 0, nil
	}
	if err := setupGoose(); err != nil {
		return 0, err
	}
	return goose.GetDBVersionContext(ctx, database)
}

// withAdvisoryLock runs fn while one pinned connection holds the lock.
func withAdvisoryLock(ctx context.Context, database *sql.DB, id int64, fn func() error) error {
	conn, err := database.Conn(ctx)
	if err != nil {
		return fmt.Errorf("lock conn: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", id); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	telemetry.Debug("db.migrate.locked", map[string]any{"lock": id})

	runErr := fn()

	// Unlock on a fresh context so a cancelled caller still releases the lock.
	if _, err := conn.ExecContext(context.WithoutCancel(ctx), "SELECT pg_advisory_unlock($1)", id); err != nil {
		telemetry.Warn("db.migrate.unlock_failed", map[string]any{"error": err.Error()})
		if runErr == nil {
			return fmt.Errorf("advisory unlock: %w", err)
		}
	}
	return runErr
}

type gooseLogger struct{}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	telemetry.Error("db.migrate", map[string]any{"detail": strings.TrimSpace(fmt.Sprintf(format, v...))})
}

func (gooseLogger) Printf(format string, v ...interface{}) {
	telemetry.Info("db.migrate", map[string]any{"detail": strings.TrimSpace(fmt.Sprintf(format, v...))})
}

// Migrate connects with the migration pool settings, applies pending
// migrations and logs the resulting schema version.
func Migrate(ctx context.Context, databaseURL string) error {
	if strings.TrimSpace(databaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	database, err := Connect(ctx, databaseURL, PoolOptions(RoleMigrate))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer database.Close()

	if err := RunMigrations(ctx, database); err != nil {
		return err
	}
	version, err := MigrationStatus(ctx, database)
	if err != nil {
		return fmt.Errorf("migration status: %w", err)
	}
	telemetry.Info("db.migrated", map[string]any{"version": version})
	return nil
}
