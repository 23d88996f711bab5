package config

import (
	"fmt"
	"os"
	"strings"

	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from YAML files and environment variables,
// validates it, and returns the resulting Config.
func Load() (*Config, *viper.Viper, error) {
	// missing env files are fine; YAML and real env still apply
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	v := viper.New()
	v.SetConfigFile(fmt.Sprintf("./configs/%s.yaml", env))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.AppEnv = env

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return nil, nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.shutdown_timeout", "10s")

	v.SetDefault("store.backend", "redis")
	v.SetDefault("store.file_path", "data/users.json")

	v.SetDefault("redis.addr", "localhost:6379")

	// rates mirror the original product configuration
	v.SetDefault("ledger.coin_to_currency_rate", 50000)
	v.SetDefault("ledger.min_withdraw", 500)
	v.SetDefault("ledger.mining_rate_per_hour", 50)
	v.SetDefault("ledger.spin_limit", 4)
	v.SetDefault("ledger.daily_reward", 150)
	v.SetDefault("ledger.quiz_reward", 50)
	v.SetDefault("ledger.quiz_penalty", 10)
	v.SetDefault("ledger.signup_bonus", 100)
	v.SetDefault("ledger.ball_drop_cost", 100)

	v.SetDefault("auth.pending_ttl", "15m")
	v.SetDefault("auth.login_attempt_limit", 5)
	v.SetDefault("auth.login_window", "1m")
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("ad_gate.countdown", "5s")

	v.SetDefault("jobs.spin_reset_enabled", false)
	v.SetDefault("jobs.spin_reset_schedule", "@daily")
}
