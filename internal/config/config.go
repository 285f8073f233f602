package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Store backends for match state.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// App holds core runtime configuration shared across services.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"superover"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Postgres    Postgres
	Redis       Redis
	SuperOver   SuperOver
	Bot         Bot
	Questions   Questions
	Leaderboard Leaderboard
	Auth        Auth
}

// Postgres captures connection info for the result archive. Leaving PG_HOST
// empty disables the archive and leaderboard snapshots.
type Postgres struct {
	Host     string `env:"PG_HOST"`
	Port     int    `env:"PG_PORT" envDefault:"5432"`
	User     string `env:"PG_USER"`
	Password string `env:"PG_PASSWORD"`
	Database string `env:"PG_DATABASE"`
	SSLMode  string `env:"PG_SSL_MODE" envDefault:"disable"`
	MaxConns int    `env:"PG_MAX_CONNS" envDefault:"10"`
}

// Enabled reports whether a database was configured.
func (p Postgres) Enabled() bool {
	return p.Host != ""
}

// DSN renders a keyword/value connection string for pgx.
func (p Postgres) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s pool_max_conns=%d",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode, p.MaxConns)
}

// Redis holds cache, leaderboard and shared match store configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Enabled reports whether a Redis server was configured.
func (r Redis) Enabled() bool {
	return r.Addr != ""
}

// SuperOver gates and tunes the match engine.
type SuperOver struct {
	Enabled  bool          `env:"SUPER_OVER_ENABLED" envDefault:"true"`
	Store    string        `env:"SUPEROVER_STORE" envDefault:"memory"`
	MatchTTL time.Duration `env:"SUPEROVER_MATCH_TTL" envDefault:"2h"`
	LockTTL  time.Duration `env:"SUPEROVER_LOCK_TTL" envDefault:"5s"`
}

// Bot carries the difficulty tier table for the simulated opponent.
type Bot struct {
	EasyAccuracy   float64       `env:"BOT_EASY_ACCURACY" envDefault:"0.5"`
	EasyDelay      time.Duration `env:"BOT_EASY_DELAY" envDefault:"2s"`
	MediumAccuracy float64       `env:"BOT_MEDIUM_ACCURACY" envDefault:"0.7"`
	MediumDelay    time.Duration `env:"BOT_MEDIUM_DELAY" envDefault:"1500ms"`
	HardAccuracy   float64       `env:"BOT_HARD_ACCURACY" envDefault:"0.9"`
	HardDelay      time.Duration `env:"BOT_HARD_DELAY" envDefault:"1s"`
}

// Questions configures the question over providers.
type Questions struct {
	FetchTimeout time.Duration `env:"QUESTION_FETCH_TIMEOUT" envDefault:"4s"`
	CacheTTL     time.Duration `env:"QUESTION_CACHE_TTL" envDefault:"5m"`
	OpenTDBURL   string        `env:"OPENTDB_BASE_URL"`
	TriviaAPIURL string        `env:"TRIVIA_API_BASE_URL"`
	TriviaAPIKey string        `env:"TRIVIA_API_KEY"`
}

// Leaderboard governs snapshotting behavior.
type Leaderboard struct {
	SnapshotInterval time.Duration `env:"LEADERBOARD_SNAPSHOT_INTERVAL" envDefault:"5m"`
	SnapshotTopN     int           `env:"LEADERBOARD_SNAPSHOT_TOP" envDefault:"50"`
}

// Auth holds the Supabase project secret used to verify access tokens.
type Auth struct {
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *App) validate() error {
	switch c.SuperOver.Store {
	case StoreMemory:
	case StoreRedis:
		if !c.Redis.Enabled() {
			return fmt.Errorf("SUPEROVER_STORE=redis requires REDIS_ADDR")
		}
	default:
		return fmt.Errorf("SUPEROVER_STORE must be %q or %q, got %q", StoreMemory, StoreRedis, c.SuperOver.Store)
	}

	for name, acc := range map[string]float64{
		"BOT_EASY_ACCURACY":   c.Bot.EasyAccuracy,
		"BOT_MEDIUM_ACCURACY": c.Bot.MediumAccuracy,
		"BOT_HARD_ACCURACY":   c.Bot.HardAccuracy,
	} {
		if acc < 0 || acc > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, acc)
		}
	}

	for name, d := range map[string]time.Duration{
		"BOT_EASY_DELAY":   c.Bot.EasyDelay,
		"BOT_MEDIUM_DELAY": c.Bot.MediumDelay,
		"BOT_HARD_DELAY":   c.Bot.HardDelay,
	} {
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}

	if c.Postgres.Enabled() && (c.Postgres.User == "" || c.Postgres.Database == "") {
		return fmt.Errorf("PG_USER and PG_DATABASE are required when PG_HOST is set")
	}
	return nil
}
