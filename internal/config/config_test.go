package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensource-finance/tradescan/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tradescan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	want := domain.DefaultConfig()
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.History, cfg.History)
	assert.Equal(t, want.Extraction, cfg.Extraction)
	assert.Equal(t, want.Scoring, cfg.Scoring)
	assert.Equal(t, "sqlite", cfg.Repository.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Rules.Extra)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9191
history:
  store: file
  file_path: /tmp/runs.json
  limit: 25
extraction:
  cache_ttl: 2m
  fuzzy: false
screening:
  incoterms_enabled: true
scoring:
  region_keywords: [atlantis]
rules:
  extra:
    - id: big-bundle
      name: Big bundle
      expression: doc_count > 4
      points: 10
      reason: "{doc_count} documents in one bundle"
      enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset keys keep defaults")
	assert.Equal(t, domain.HistoryConfig{Store: "file", FilePath: "/tmp/runs.json", Limit: 25}, cfg.History)
	assert.Equal(t, 2*time.Minute, cfg.Extraction.CacheTTL)
	assert.False(t, cfg.Extraction.Fuzzy)
	assert.True(t, cfg.Extraction.Entities)
	assert.True(t, cfg.Screening.IncotermsEnabled)
	assert.Equal(t, []string{"atlantis"}, cfg.Scoring.RegionKeywords)
	assert.Equal(t, 0.4, cfg.Scoring.BaseWeight)

	require.Len(t, cfg.Rules.Extra, 1)
	assert.Equal(t, domain.RiskRule{
		ID:         "big-bundle",
		Name:       "Big bundle",
		Expression: "doc_count > 4",
		Points:     10,
		Reason:     "{doc_count} documents in one bundle",
		Enabled:    true,
	}, cfg.Rules.Extra[0])
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("TRADESCAN_SERVER_PORT", "7070")
	t.Setenv("TRADESCAN_CACHE_TYPE", "none")
	t.Setenv("TRADESCAN_EXTRACTION_CACHE_TTL", "30s")
	t.Setenv("TRADESCAN_HISTORY_STORE", "memory")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "none", cfg.Cache.Type)
	assert.Equal(t, 30*time.Second, cfg.Extraction.CacheTTL)
	assert.Equal(t, "memory", cfg.History.Store)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9191\n")
	t.Setenv("TRADESCAN_SERVER_PORT", "6060")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 6060, cfg.Server.Port)
}

func TestLoadDebug(t *testing.T) {
	t.Setenv("TRADESCAN_DEBUG", "true")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Load(writeConfig(t, "server: [port"))
		assert.Error(t, err)
	})

	t.Run("invalid values", func(t *testing.T) {
		_, err := Load(writeConfig(t, "history:\n  store: tape\n  limit: 0\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "history.store")
		assert.Contains(t, err.Error(), "history.limit")
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Config)
		wantErr string
	}{
		{"defaults", func(*domain.Config) {}, ""},
		{"sql history without repository", func(c *domain.Config) { c.Repository.Driver = "none" }, "requires a repository"},
		{"memory history without repository", func(c *domain.Config) {
			c.Repository.Driver = "none"
			c.History.Store = "memory"
		}, ""},
		{"unknown driver", func(c *domain.Config) { c.Repository.Driver = "mongo" }, "repository.driver"},
		{"unknown cache", func(c *domain.Config) { c.Cache.Type = "memcached" }, "cache.type"},
		{"unknown bus", func(c *domain.Config) { c.EventBus.Type = "kafka" }, "event_bus.type"},
		{"threshold range", func(c *domain.Config) { c.Extraction.FuzzyThreshold = 120 }, "fuzzy_threshold"},
		{"tier order", func(c *domain.Config) { c.Scoring.LowTierMin = 50 }, "low_tier_min"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := domain.DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
