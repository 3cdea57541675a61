// Package db owns the Postgres handle behind the résumé repository, its pool
// sizing per process profile, and the embedded goose migrations.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"golang.org/x/sync/singleflight"

	"resume-ingest/internal/shared/telemetry"
)

// ErrNoDatabaseURL is returned when no connection string is configured.
var ErrNoDatabaseURL = errors.New("DATABASE_URL is empty")

// Profile selects pool defaults for the kind of process holding the handle.
type Profile string

const (
	// ProfileServer is the long-running API or SQS worker.
	ProfileServer Profile = "server"
	// ProfileLambda is a Lambda worker; many concurrent instances share the
	// database, so each keeps a tiny pool.
	ProfileLambda Profile = "lambda"
	// ProfileMigrate is the one-shot migrate CLI.
	ProfileMigrate Profile = "migrate"
)

// Options sizes the pool and bounds the initial ping.
type Options struct {
	Profile         Profile
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// Options returns the defaults for p. Unknown profiles get server defaults.
func (p Profile) Options() Options {
	switch p {
	case ProfileLambda:
		return Options{Profile: p, MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxLifetime: 15 * time.Minute, ConnMaxIdleTime: 30 * time.Second, PingTimeout: 3 * time.Second}
	case ProfileMigrate:
		return Options{Profile: p, MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second}
	default:
		return Options{Profile: ProfileServer, MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxLifetime: time.Hour, ConnMaxIdleTime: 2 * time.Minute, PingTimeout: 5 * time.Second}
	}
}

// IsLambdaRuntime reports whether the process runs inside AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// RuntimeProfile is ProfileLambda inside Lambda and ProfileServer elsewhere.
func RuntimeProfile() Profile {
	if IsLambdaRuntime() {
		return ProfileLambda
	}
	return ProfileServer
}

type envOverride struct {
	key   string
	apply func(*Options, string) error
}

var envOverrides = []envOverride{
	{"DB_MAX_OPEN_CONNS", intField(func(o *Options) *int { return &o.MaxOpenConns })},
	{"DB_MAX_IDLE_CONNS", intField(func(o *Options) *int { return &o.MaxIdleConns })},
	{"DB_CONN_MAX_LIFETIME", durationField(func(o *Options) *time.Duration { return &o.ConnMaxLifetime })},
	{"DB_CONN_MAX_IDLE_TIME", durationField(func(o *Options) *time.Duration { return &o.ConnMaxIdleTime })},
	{"DB_PING_TIMEOUT", durationField(func(o *Options) *time.Duration { return &o.PingTimeout })},
}

func intField(field func(*Options) *int) func(*Options, string) error {
	return func(o *Options, raw string) error {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*field(o) = v
		return nil
	}
}

func durationField(field func(*Options) *time.Duration) func(*Options, string) error {
	return func(o *Options, raw string) error {
		v, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*field(o) = v
		return nil
	}
}

// OptionsFromEnv applies DB_* overrides on top of base. Malformed values are
// logged and ignored.
func OptionsFromEnv(base Options) Options {
	opts := base
	for _, o := range envOverrides {
		raw := strings.TrimSpace(os.Getenv(o.key))
		if raw == "" {
			continue
		}
		if err := o.apply(&opts, raw); err != nil {
			telemetry.Warn("db.env_ignored", map[string]any{"key": o.key, "value": raw, "error": err.Error()})
		}
	}
	return opts
}

// sqlOpen is replaced in tests with a driver that needs no server.
var sqlOpen = sql.Open

// Connect opens a pgx-backed pool sized by opts and pings it once.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, ErrNoDatabaseURL
	}
	handle, err := sqlOpen("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	configurePool(handle, opts)

	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := handle.PingContext(pingCtx); err != nil {
		_ = handle.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := handle.Stats()
	telemetry.Info("db.connected", map[string]any{
		"profile":  string(opts.Profile),
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
		"idle":     stats.Idle,
	})
	return handle, nil
}

func configurePool(handle *sql.DB, opts Options) {
	handle.SetMaxOpenConns(max(opts.MaxOpenConns, 1))
	handle.SetMaxIdleConns(max(opts.MaxIdleConns, 1))
	if opts.ConnMaxLifetime > 0 {
		handle.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime > 0 {
		handle.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}

var singleton struct {
	sync.Mutex
	db *sql.DB
}

var singletonInit singleflight.Group

// GetSingleton returns the process-wide handle, connecting on first use.
// Concurrent first callers share one Connect; a failed attempt is not cached.
func GetSingleton(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if handle := cachedSingleton(); handle != nil {
		return handle, nil
	}
	v, err, _ := singletonInit.Do("db", func() (any, error) {
		if handle := cachedSingleton(); handle != nil {
			return handle, nil
		}
		handle, err := Connect(ctx, databaseURL, opts)
		if err != nil {
			return nil, err
		}
		singleton.Lock()
		singleton.db = handle
		singleton.Unlock()
		telemetry.Info("db.singleton_init", map[string]any{"profile": string(opts.Profile)})
		return handle, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

func cachedSingleton() *sql.DB {
	singleton.Lock()
	defer singleton.Unlock()
	return singleton.db
}

// Open connects for the current runtime: Lambda reuses the warm singleton,
// everything else gets its own pool. DB_* env overrides apply in both cases.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	profile := RuntimeProfile()
	opts := OptionsFromEnv(profile.Options())
	if profile == ProfileLambda {
		return GetSingleton(ctx, databaseURL, opts)
	}
	return Connect(ctx, databaseURL, opts)
}

// Health pings db with a short timeout. A nil db means the in-memory repo is
// in use and is reported healthy.
func Health(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
