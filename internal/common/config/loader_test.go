// internal/common/config/loader_test.go
package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validBase() *Config {
	cfg := &Config{}
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Postgres.Database = "trm"
	applyDefaults(cfg)
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := validBase()

	assert.Equal(t, "trm-match-engine", cfg.App.Name)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, 50, cfg.Engine.BatchSize)
	assert.Equal(t, 90, cfg.Engine.PerfectMatchThreshold)
	assert.Equal(t, 60, cfg.Engine.SuggestionMinScore)
	assert.Equal(t, 30, cfg.Engine.StaleAfterDays)
	assert.Equal(t, 10*time.Minute, cfg.Engine.ProfileCacheTTL)
	assert.Equal(t, ":8085", cfg.Webhook.Listen)
	assert.Equal(t, 5*time.Minute, cfg.Webhook.MaxSkew)
	assert.Equal(t, "0 3 * * *", cfg.Sweep.CleanupSchedule)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestApplyDefaults_KeepsExplicitValues(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Postgres.Host = "db.internal"
	cfg.Database.Postgres.Database = "trm"
	cfg.Engine.BatchSize = 25
	cfg.Engine.PerfectMatchThreshold = 95
	applyDefaults(cfg)

	assert.Equal(t, 25, cfg.Engine.BatchSize)
	assert.Equal(t, 95, cfg.Engine.PerfectMatchThreshold)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.Database.Postgres.Host = "" },
			wantErr: "database.postgres.host",
		},
		{
			name:    "missing database",
			mutate:  func(c *Config) { c.Database.Postgres.Database = "" },
			wantErr: "database.postgres.database",
		},
		{
			name:    "zero batch size",
			mutate:  func(c *Config) { c.Engine.BatchSize = -1 },
			wantErr: "engine.batch_size",
		},
		{
			name:    "threshold above hundred",
			mutate:  func(c *Config) { c.Engine.PerfectMatchThreshold = 150 },
			wantErr: "engine.perfect_match_threshold",
		},
		{
			name: "negative weight override",
			mutate: func(c *Config) {
				c.Engine.WeightOverrides = map[string]float64{"skills": -0.2}
			},
			wantErr: "engine.weight_overrides.skills",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validBase()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestPostgresConfig_GetDSN(t *testing.T) {
	cfg := validBase()
	cfg.Database.Postgres.User = "trm"
	cfg.Database.Postgres.Password = "secret"

	dsn := cfg.Database.Postgres.GetDSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=trm")
	assert.Contains(t, dsn, "sslmode=disable")
}
