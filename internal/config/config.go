// Package config loads tradescan configuration from defaults, an optional
// YAML file and TRADESCAN_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/opensource-finance/tradescan/internal/domain"
)

// EnvPrefix prefixes every environment override, e.g. TRADESCAN_SERVER_PORT.
const EnvPrefix = "TRADESCAN"

// Load reads configuration. An empty path looks for tradescan.yaml in the
// working directory and tolerates its absence; an explicit path must exist.
func Load(path string) (*domain.Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("tradescan")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, domain.DefaultConfig())

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	cfg := &domain.Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if os.Getenv(EnvPrefix+"_DEBUG") == "true" {
		cfg.Logging.Level = "debug"
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func Validate(cfg *domain.Config) error {
	var errs []error

	switch cfg.Repository.Driver {
	case "sqlite", "postgres", "none":
	default:
		errs = append(errs, fmt.Errorf("repository.driver %q: want sqlite, postgres or none", cfg.Repository.Driver))
	}
	switch cfg.Cache.Type {
	case "", "memory", "redis", "none":
	default:
		errs = append(errs, fmt.Errorf("cache.type %q: want memory, redis or none", cfg.Cache.Type))
	}
	switch cfg.EventBus.Type {
	case "", "channel", "nats":
	default:
		errs = append(errs, fmt.Errorf("event_bus.type %q: want channel or nats", cfg.EventBus.Type))
	}
	switch cfg.History.Store {
	case "memory", "file":
	case "sql":
		if cfg.Repository.Driver == "none" {
			errs = append(errs, errors.New("history.store sql requires a repository driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("history.store %q: want memory, file or sql", cfg.History.Store))
	}
	if cfg.Server.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit must not be negative, got %v", cfg.Server.RateLimit))
	}
	if cfg.History.Limit <= 0 {
		errs = append(errs, fmt.Errorf("history.limit must be positive, got %d", cfg.History.Limit))
	}
	if t := cfg.Extraction.FuzzyThreshold; t < 0 || t > 100 {
		errs = append(errs, fmt.Errorf("extraction.fuzzy_threshold must be within 0..100, got %v", t))
	}
	if cfg.Scoring.LowTierMin < cfg.Scoring.MediumTierMin {
		errs = append(errs, fmt.Errorf("scoring.low_tier_min (%d) below medium_tier_min (%d)",
			cfg.Scoring.LowTierMin, cfg.Scoring.MediumTierMin))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// setDefaults registers every key so environment overrides bind during
// Unmarshal.
func setDefaults(v *viper.Viper, d *domain.Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.max_upload_bytes", d.Server.MaxUploadBytes)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)

	v.SetDefault("repository.driver", d.Repository.Driver)
	v.SetDefault("repository.sqlite_path", d.Repository.SQLitePath)
	v.SetDefault("repository.postgres_host", d.Repository.PostgresHost)
	v.SetDefault("repository.postgres_port", d.Repository.PostgresPort)
	v.SetDefault("repository.postgres_user", d.Repository.PostgresUser)
	v.SetDefault("repository.postgres_password", d.Repository.PostgresPassword)
	v.SetDefault("repository.postgres_db", d.Repository.PostgresDB)
	v.SetDefault("repository.postgres_sslmode", d.Repository.PostgresSSLMode)
	v.SetDefault("repository.max_open_conns", d.Repository.MaxOpenConns)
	v.SetDefault("repository.max_idle_conns", d.Repository.MaxIdleConns)
	v.SetDefault("repository.conn_max_lifetime", d.Repository.ConnMaxLifetime)

	v.SetDefault("cache.type", d.Cache.Type)
	v.SetDefault("cache.local_max_size", d.Cache.LocalMaxSize)
	v.SetDefault("cache.local_ttl", d.Cache.LocalTTL)
	v.SetDefault("cache.redis_addr", d.Cache.RedisAddr)
	v.SetDefault("cache.redis_password", d.Cache.RedisPassword)
	v.SetDefault("cache.redis_db", d.Cache.RedisDB)
	v.SetDefault("cache.two_phase", d.Cache.EnableTwoPhase)

	v.SetDefault("event_bus.type", d.EventBus.Type)
	v.SetDefault("event_bus.channel_buffer_size", d.EventBus.ChannelBufferSize)
	v.SetDefault("event_bus.nats_url", d.EventBus.NATSUrl)
	v.SetDefault("event_bus.nats_token", d.EventBus.NATSToken)
	v.SetDefault("event_bus.nats_max_reconnects", d.EventBus.NATSMaxReconnects)
	v.SetDefault("event_bus.nats_reconnect_wait", d.EventBus.NATSReconnectWait)
	v.SetDefault("event_bus.nats_queue_group", d.EventBus.NATSQueueGroup)

	v.SetDefault("worker.enabled", d.Worker.Enabled)

	v.SetDefault("history.store", d.History.Store)
	v.SetDefault("history.file_path", d.History.FilePath)
	v.SetDefault("history.limit", d.History.Limit)

	v.SetDefault("extraction.cache_ttl", d.Extraction.CacheTTL)
	v.SetDefault("extraction.entities", d.Extraction.Entities)
	v.SetDefault("extraction.fuzzy", d.Extraction.Fuzzy)
	v.SetDefault("extraction.fuzzy_threshold", d.Extraction.FuzzyThreshold)
	v.SetDefault("extraction.pdftotext_path", d.Extraction.PDFToTextPath)
	v.SetDefault("extraction.max_debug_lines", d.Extraction.MaxDebugLines)

	v.SetDefault("screening.sanctions_file", d.Screening.SanctionsFile)
	v.SetDefault("screening.incoterms_enabled", d.Screening.IncotermsEnabled)

	s := d.Scoring
	v.SetDefault("scoring.base_weight", s.BaseWeight)
	v.SetDefault("scoring.hs_weight", s.HSWeight)
	v.SetDefault("scoring.sanction_weight", s.SanctionWeight)
	v.SetDefault("scoring.incoterm_weight", s.IncotermWeight)
	v.SetDefault("scoring.mismatch_penalty", s.MismatchPenalty)
	v.SetDefault("scoring.fraud_penalty", s.FraudPenalty)
	v.SetDefault("scoring.pattern_penalty", s.PatternPenalty)
	v.SetDefault("scoring.low_score", s.LowScore)
	v.SetDefault("scoring.medium_score", s.MediumScore)
	v.SetDefault("scoring.high_score", s.HighScore)
	v.SetDefault("scoring.empty_score", s.EmptyScore)
	v.SetDefault("scoring.unknown_score", s.UnknownScore)
	v.SetDefault("scoring.low_tier_min", s.LowTierMin)
	v.SetDefault("scoring.medium_tier_min", s.MediumTierMin)
	v.SetDefault("scoring.region_keywords", s.RegionKeywords)
	v.SetDefault("scoring.recurrence_penalty", s.RecurrencePenalty)

	v.SetDefault("log.level", d.Logging.Level)
	v.SetDefault("log.format", d.Logging.Format)

	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
}
