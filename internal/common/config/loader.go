// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like DATABASE_POSTGRES_HOST
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, e.g. config.production.yaml
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig() // ignore error if not found

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations (for running from different directories)
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "trm-match-engine"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}

	if cfg.Engine.BatchSize == 0 {
		cfg.Engine.BatchSize = 50
	}
	if cfg.Engine.PerfectMatchThreshold == 0 {
		cfg.Engine.PerfectMatchThreshold = 90
	}
	if cfg.Engine.SuggestionMinScore == 0 {
		cfg.Engine.SuggestionMinScore = 60
	}
	if cfg.Engine.StaleAfterDays == 0 {
		cfg.Engine.StaleAfterDays = 30
	}
	if cfg.Engine.ProfileCacheTTL == 0 {
		cfg.Engine.ProfileCacheTTL = 10 * time.Minute
	}

	if cfg.Webhook.Listen == "" {
		cfg.Webhook.Listen = ":8085"
	}
	if cfg.Webhook.MaxSkew == 0 {
		cfg.Webhook.MaxSkew = 5 * time.Minute
	}

	if cfg.Sweep.CleanupSchedule == "" {
		cfg.Sweep.CleanupSchedule = "0 3 * * *"
	}
	if cfg.Sweep.NotifySchedule == "" {
		cfg.Sweep.NotifySchedule = "*/15 * * * *"
	}

	if cfg.Metrics.Listen == "" {
		cfg.Metrics.Listen = ":9090"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required")
	}
	if cfg.Database.Postgres.Database == "" {
		return fmt.Errorf("database.postgres.database is required")
	}
	if cfg.Engine.BatchSize < 1 {
		return fmt.Errorf("engine.batch_size must be positive, got %d", cfg.Engine.BatchSize)
	}
	if cfg.Engine.PerfectMatchThreshold < 0 || cfg.Engine.PerfectMatchThreshold > 100 {
		return fmt.Errorf("engine.perfect_match_threshold must be in [0,100], got %d", cfg.Engine.PerfectMatchThreshold)
	}
	for factor, w := range cfg.Engine.WeightOverrides {
		if w < 0 {
			return fmt.Errorf("engine.weight_overrides.%s must not be negative", factor)
		}
	}
	return nil
}
