package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/suiscode/ai-resume/internal/shared/telemetry"
)

// Role selects pool defaults for the kind of process opening the database.
type Role string

const (
	RoleServer  Role = "server"
	RoleLambda  Role = "lambda"
	RoleMigrate Role = "migrate"
)

// Options controls pool sizing and the startup ping.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
	// PingAttempts covers pooled Postgres endpoints that refuse the first
	// connection while waking up.
	PingAttempts int
	PingBackoff  time.Duration
}

var roleDefaults = map[Role]Options{
	RoleServer: {
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     5 * time.Second,
		PingAttempts:    3,
		PingBackoff:     500 * time.Millisecond,
	},
	RoleLambda: {
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: 15 * time.Minute,
		ConnMaxIdleTime: 30 * time.Second,
		PingTimeout:     3 * time.Second,
		PingAttempts:    2,
		PingBackoff:     250 * time.Millisecond,
	},
	RoleMigrate: {
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Hour,
		ConnMaxIdleTime: 2 * time.Minute,
		PingTimeout:     5 * time.Second,
		PingAttempts:    3,
		PingBackoff:     time.Second,
	},
}

var envOverrides = []struct {
	key   string
	apply func(*Options, string) error
}{
	{"DB_MAX_OPEN_CONNS", func(o *Options, v string) (err error) { o.MaxOpenConns, err = strconv.Atoi(v); return }},
	{"DB_MAX_IDLE_CONNS", func(o *Options, v string) (err error) { o.MaxIdleConns, err = strconv.Atoi(v); return }},
	{"DB_CONN_MAX_LIFETIME", func(o *Options, v string) (err error) { o.ConnMaxLifetime, err = time.ParseDuration(v); return }},
	{"DB_CONN_MAX_IDLE_TIME", func(o *Options, v string) (err error) { o.ConnMaxIdleTime, err = time.ParseDuration(v); return }},
	{"DB_PING_TIMEOUT", func(o *Options, v string) (err error) { o.PingTimeout, err = time.ParseDuration(v); return }},
	{"DB_PING_ATTEMPTS", func(o *Options, v string) (err error) { o.PingAttempts, err = strconv.Atoi(v); return }},
}

var (
	openDB = sql.Open

	sharedMu    sync.Mutex
	sharedDB    *sql.DB
	sharedGroup singleflight.Group
)

// DetectRole reports RoleLambda inside AWS Lambda and RoleServer otherwise.
func DetectRole() Role {
	if strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != "" {
		return RoleLambda
	}
	return RoleServer
}

// PoolOptions returns the defaults for role with DB_* env overrides applied.
// Invalid overrides are logged and ignored.
func PoolOptions(role Role) Options {
	opts, ok := roleDefaults[role]
	if !ok {
		opts = roleDefaults[RoleServer]
	}
	for _, o := range envOverrides {
		raw := strings.TrimSpace(os.Getenv(o.key))
		if raw == "" {
			continue
		}
		next := opts
		if err := o.apply(&next, raw); err != nil {
			telemetry.Error("db.env.invalid", map[string]any{"key": o.key, "error": err.Error()})
			continue
		}
		opts = next
	}
	return opts
}

// Connect opens a pgx-backed pool and pings it, retrying the ping on a
// constant backoff.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	database, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	configurePool(database, opts)

	if err := ping(ctx, database, opts); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := database.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return database, nil
}

// Shared returns one pool per process. Concurrent first calls share a single
// connect attempt; a failed attempt is retried by the next caller.
func Shared(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if database := loadShared(); database != nil {
		return database, nil
	}
	v, err, _ := sharedGroup.Do("db", func() (any, error) {
		if database := loadShared(); database != nil {
			return database, nil
		}
		database, err := Connect(ctx, databaseURL, opts)
		if err != nil {
			return nil, err
		}
		sharedMu.Lock()
		sharedDB = database
		sharedMu.Unlock()
		telemetry.Info("db.shared.init", nil)
		return database, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

func loadShared() *sql.DB {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return sharedDB
}

func ping(ctx context.Context, database *sql.DB, opts Options) error {
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	attempts := opts.PingAttempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := opts.PingBackoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	attempt := 0
	return retry.Do(ctx, retry.WithMaxRetries(uint64(attempts-1), retry.NewConstant(backoff)), func(ctx context.Context) error {
		attempt++
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := database.PingContext(pingCtx); err != nil {
			telemetry.Warn("db.ping_failed", map[string]any{"attempt": attempt, "error": err.Error()})
			return retry.RetryableError(err)
		}
		return nil
	})
}

func configurePool(database *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 || opts.MaxIdleConns > opts.MaxOpenConns {
		opts.MaxIdleConns = opts.MaxOpenConns
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	database.SetMaxOpenConns(opts.MaxOpenConns)
	database.SetMaxIdleConns(opts.MaxIdleConns)
	database.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		database.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}
