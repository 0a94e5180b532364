// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Engine        EngineConfig       `mapstructure:"engine"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Webhook       WebhookConfig      `mapstructure:"webhook"`
	Sweep         SweepConfig        `mapstructure:"sweep"`
	Metrics       MetricsConfig      `mapstructure:"metrics"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngineConfig holds the tunables of the matching engine itself. Everything
// here is overridable at construction time; there are no hidden globals.
type EngineConfig struct {
	BatchSize             int                `mapstructure:"batch_size"`
	PerfectMatchThreshold int                `mapstructure:"perfect_match_threshold"`
	SuggestionMinScore    int                `mapstructure:"suggestion_min_score"`
	StaleAfterDays        int                `mapstructure:"stale_after_days"`
	ProfileCacheTTL       time.Duration      `mapstructure:"profile_cache_ttl"`
	WeightOverrides       map[string]float64 `mapstructure:"weight_overrides"`
}

// NotificationConfig holds settings for the notification sender.
type NotificationConfig struct {
	Email struct {
		Enabled   bool   `mapstructure:"enabled"`
		FromEmail string `mapstructure:"from_email"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sms"`
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
}

// WebhookConfig holds settings for the inbound TRM webhook endpoint.
type WebhookConfig struct {
	Listen  string        `mapstructure:"listen"`
	Secret  string        `mapstructure:"secret"`
	MaxSkew time.Duration `mapstructure:"max_skew"`
}

// SweepConfig holds cron expressions for the background sweeps.
type SweepConfig struct {
	CleanupSchedule string `mapstructure:"cleanup_schedule"`
	NotifySchedule  string `mapstructure:"notify_schedule"`
}

type MetricsConfig struct {
	Listen string `mapstructure:"listen"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
