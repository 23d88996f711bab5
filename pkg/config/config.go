// Package config provides configuration loading and validation utilities.
package config

import (
	"fmt"
	"time"
)

// Config holds runtime configuration for the rewards service.
type Config struct {
	AppEnv string `mapstructure:"app_env"`

	Logger   LoggerConfig   `mapstructure:"logger" validate:"required"`
	Sentry   SentryConfig   `mapstructure:"sentry"`
	HTTP     HTTPConfig     `mapstructure:"http" validate:"required"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Ledger   LedgerConfig   `mapstructure:"ledger" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	AdGate   AdGateConfig   `mapstructure:"ad_gate"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
}

// LoggerConfig controls log level, format and optional file rotation.
type LoggerConfig struct {
	Level  string        `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string        `mapstructure:"format" validate:"required,oneof=text json"`
	File   LogFileConfig `mapstructure:"file"`
}

// LogFileConfig enables rotated file output in addition to stdout.
type LogFileConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

type SentryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port" validate:"required"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// StoreConfig selects the account-store backend.
type StoreConfig struct {
	// Backend is "redis" or "file".
	Backend string `mapstructure:"backend" validate:"required,oneof=redis file"`
	// FilePath is the users blob location for the file backend.
	FilePath string `mapstructure:"file_path"`
}

type RedisConfig struct {
	Addr            string        `mapstructure:"addr"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"`
	MinIdleConns    int           `mapstructure:"min_idle_conns"`
	PoolTimeout     time.Duration `mapstructure:"pool_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	MinRetryBackoff time.Duration `mapstructure:"min_retry_backoff"`
	MaxRetryBackoff time.Duration `mapstructure:"max_retry_backoff"`
}

// PostgresConfig configures the optional withdrawal-request journal.
// The journal is skipped entirely when Enabled is false.
type PostgresConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Host          string `mapstructure:"host"`
	Port          string `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Name          string `mapstructure:"name"`
	SSLMode       string `mapstructure:"sslmode"`
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// DSN returns a PostgreSQL connection string based on config values.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// LedgerConfig holds every balance-affecting constant. None of these may be
// hard-coded anywhere else.
type LedgerConfig struct {
	CoinToCurrencyRate int64 `mapstructure:"coin_to_currency_rate" validate:"gt=0"`
	MinWithdraw        int64 `mapstructure:"min_withdraw" validate:"gt=0"`
	MiningRatePerHour  int64 `mapstructure:"mining_rate_per_hour" validate:"gt=0"`
	SpinLimit          int   `mapstructure:"spin_limit" validate:"gt=0"`
	DailyReward        int64 `mapstructure:"daily_reward" validate:"gt=0"`
	QuizReward         int64 `mapstructure:"quiz_reward" validate:"gte=0"`
	QuizPenalty        int64 `mapstructure:"quiz_penalty" validate:"gte=0"`
	SignupBonus        int64 `mapstructure:"signup_bonus" validate:"gte=0"`
	BallDropCost       int64 `mapstructure:"ball_drop_cost" validate:"gte=0"`
}

type AuthConfig struct {
	PendingTTL        time.Duration `mapstructure:"pending_ttl" validate:"gt=0"`
	LoginAttemptLimit int           `mapstructure:"login_attempt_limit" validate:"gt=0"`
	LoginWindow       time.Duration `mapstructure:"login_window" validate:"gt=0"`
	BcryptCost        int           `mapstructure:"bcrypt_cost" validate:"gte=4,lte=31"`
}

// AdGateConfig controls the simulated ad countdown that gates rewards.
type AdGateConfig struct {
	Countdown time.Duration `mapstructure:"countdown"`
}

type JobsConfig struct {
	// SpinResetEnabled turns on the scheduled daily spin-allowance reset.
	SpinResetEnabled  bool   `mapstructure:"spin_reset_enabled"`
	SpinResetSchedule string `mapstructure:"spin_reset_schedule"`
}
