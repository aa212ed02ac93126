package domain

import "time"

// Config holds the complete tradescan configuration.
type Config struct {
	// Server settings
	Server ServerConfig `mapstructure:"server"`

	// Component configurations
	Repository RepositoryConfig `mapstructure:"repository"`
	Cache      CacheConfig      `mapstructure:"cache"`
	EventBus   EventBusConfig   `mapstructure:"event_bus"`
	Worker     WorkerConfig     `mapstructure:"worker"`

	// Analysis settings
	History    HistoryConfig    `mapstructure:"history"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Screening  ScreeningConfig  `mapstructure:"screening"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Rules      RulesConfig      `mapstructure:"rules"`

	// Observability
	Logging LoggingConfig `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	ReadTimeout    int    `mapstructure:"read_timeout"`  // seconds
	WriteTimeout   int    `mapstructure:"write_timeout"` // seconds
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`

	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `mapstructure:"cors_origins"`

	// RateLimit caps document endpoints in requests per second; 0 disables it.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// TracingConfig holds OpenTelemetry settings.
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

// WorkerConfig holds async comparison worker settings.
type WorkerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// HistoryConfig selects where comparison runs are remembered.
type HistoryConfig struct {
	// Store is "memory", "file" or "sql" (the configured repository).
	Store    string `mapstructure:"store"`
	FilePath string `mapstructure:"file_path"`
	Limit    int    `mapstructure:"limit"`
}

// ExtractionConfig holds document extraction settings.
type ExtractionConfig struct {
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
	Entities       bool          `mapstructure:"entities"`
	Fuzzy          bool          `mapstructure:"fuzzy"`
	FuzzyThreshold float64       `mapstructure:"fuzzy_threshold"`
	PDFToTextPath  string        `mapstructure:"pdftotext_path"`
	MaxDebugLines  int           `mapstructure:"max_debug_lines"`
}

// ScreeningConfig holds sanction and trade-term screening settings.
type ScreeningConfig struct {
	// SanctionsFile overrides the embedded sanctions table when set.
	SanctionsFile    string `mapstructure:"sanctions_file"`
	IncotermsEnabled bool   `mapstructure:"incoterms_enabled"`
}

// ScoringConfig holds cognitive score weights and penalties.
type ScoringConfig struct {
	BaseWeight     float64 `mapstructure:"base_weight"`
	HSWeight       float64 `mapstructure:"hs_weight"`
	SanctionWeight float64 `mapstructure:"sanction_weight"`
	IncotermWeight float64 `mapstructure:"incoterm_weight"`

	MismatchPenalty int `mapstructure:"mismatch_penalty"`
	FraudPenalty    int `mapstructure:"fraud_penalty"`
	PatternPenalty  int `mapstructure:"pattern_penalty"`

	LowScore     int `mapstructure:"low_score"`
	MediumScore  int `mapstructure:"medium_score"`
	HighScore    int `mapstructure:"high_score"`
	EmptyScore   int `mapstructure:"empty_score"`
	UnknownScore int `mapstructure:"unknown_score"`

	LowTierMin    int `mapstructure:"low_tier_min"`
	MediumTierMin int `mapstructure:"medium_tier_min"`

	// RegionKeywords are matched against destination port and exporter text.
	RegionKeywords []string `mapstructure:"region_keywords"`

	RecurrencePenalty int `mapstructure:"recurrence_penalty"`
}

// RulesConfig holds additional risk triggers appended to the defaults.
type RulesConfig struct {
	Extra []RiskRule `mapstructure:"extra"`
}

// DefaultScoring returns the standard cognitive scoring parameters.
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		BaseWeight:        0.4,
		HSWeight:          0.2,
		SanctionWeight:    0.2,
		IncotermWeight:    0.2,
		MismatchPenalty:   4,
		FraudPenalty:      8,
		PatternPenalty:    5,
		LowScore:          95,
		MediumScore:       75,
		HighScore:         45,
		EmptyScore:        100,
		UnknownScore:      80,
		LowTierMin:        90,
		MediumTierMin:     70,
		RegionKeywords:    []string{"russia", "iran", "syria", "belarus", "crimea", "north korea"},
		RecurrencePenalty: 5,
	}
}

// DefaultConfig returns a default single-node configuration:
// SQLite history and reports, in-memory cache, channel bus.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30,
			WriteTimeout:   60,
			MaxUploadBytes: 32 << 20,
			CORSOrigins:    []string{"*"},
			RateBurst:      20,
		},
		Repository: RepositoryConfig{
			Driver:     "sqlite",
			SQLitePath: "./tradescan.db",
		},
		Cache: CacheConfig{
			Type:         "memory",
			LocalMaxSize: 1000,
			LocalTTL:     10 * time.Minute,
		},
		EventBus: EventBusConfig{
			Type:              "channel",
			ChannelBufferSize: 100,
			NATSQueueGroup:    "tradescan-workers",
		},
		Worker: WorkerConfig{
			Enabled: true,
		},
		History: HistoryConfig{
			Store:    "sql",
			FilePath: "./memory_store.json",
			Limit:    10,
		},
		Extraction: ExtractionConfig{
			CacheTTL:       10 * time.Minute,
			Entities:       true,
			Fuzzy:          true,
			FuzzyThreshold: 60,
			PDFToTextPath:  "pdftotext",
			MaxDebugLines:  50,
		},
		Screening: ScreeningConfig{
			IncotermsEnabled: false,
		},
		Scoring: DefaultScoring(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			ServiceName: "tradescan",
		},
	}
}
