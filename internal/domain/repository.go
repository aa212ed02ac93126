package domain

import (
	"context"
	"time"
)

// HistoryStore persists the bounded comparison run log.
type HistoryStore interface {
	// Load returns retained records, oldest first.
	Load(ctx context.Context) ([]MemoryRecord, error)

	// AppendAndTrim appends rec, evicts the oldest records beyond limit and
	// returns the retained sequence, oldest first.
	AppendAndTrim(ctx context.Context, rec MemoryRecord, limit int) ([]MemoryRecord, error)
}

// Repository defines the interface for data persistence.
type Repository interface {
	HistoryStore

	// Report operations
	SaveReport(ctx context.Context, report *ComparisonReport) error
	GetReport(ctx context.Context, reportID string) (*ComparisonReport, error)

	// Health check
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// RepositoryConfig holds configuration for repository initialization.
type RepositoryConfig struct {
	// Driver is the database driver: "sqlite", "postgres" or "none"
	Driver string `mapstructure:"driver"`

	// SQLite specific
	SQLitePath string `mapstructure:"sqlite_path"`

	// PostgreSQL specific
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDB       string `mapstructure:"postgres_db"`
	PostgresSSLMode  string `mapstructure:"postgres_sslmode"`

	// Connection pool settings
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}
