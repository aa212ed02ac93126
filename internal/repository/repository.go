// Package repository provides data persistence implementations.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/opensource-finance/tradescan/internal/domain"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrInvalidInput = errors.New("invalid input")
)

// SQLRepository implements domain.Repository using database/sql.
// Works with both SQLite and PostgreSQL drivers.
type SQLRepository struct {
	db     *sql.DB
	driver string
}

var _ domain.Repository = (*SQLRepository)(nil)

// New creates a new repository based on configuration.
func New(cfg domain.RepositoryConfig) (*SQLRepository, error) {
	var db *sql.DB
	var err error

	switch cfg.Driver {
	case "sqlite":
		db, err = openSQLite(cfg)
	case "postgres":
		db, err = openPostgres(cfg)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", cfg.Driver)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	repo := &SQLRepository{
		db:     db,
		driver: cfg.Driver,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

func (r *SQLRepository) migrate() error {
	for _, schema := range AllSchemas() {
		if _, err := r.db.Exec(schema); err != nil {
			return err
		}
	}
	return nil
}

const selectHistory = `
	SELECT id, recorded_at, exporters, consignees, ports,
		   cognitive_score, risk_tier, hs_risk, mismatch_count
	FROM run_history
	ORDER BY seq ASC
`

// Load returns the retained run records, oldest first.
func (r *SQLRepository) Load(ctx context.Context) ([]domain.MemoryRecord, error) {
	return r.loadHistory(ctx, r.db)
}

// AppendAndTrim inserts rec and deletes runs older than the newest limit,
// in one transaction.
func (r *SQLRepository) AppendAndTrim(ctx context.Context, rec domain.MemoryRecord, limit int) ([]domain.MemoryRecord, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", ErrInvalidInput)
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}

	exporters, _ := json.Marshal(nonNil(rec.Exporters))
	consignees, _ := json.Marshal(nonNil(rec.Consignees))
	ports, _ := json.Marshal(nonNil(rec.DestPorts))

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM run_history`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("failed to allocate sequence: %w", err)
	}

	insert := `
		INSERT INTO run_history (
			id, seq, recorded_at, exporters, consignees, ports,
			cognitive_score, risk_tier, hs_risk, mismatch_count
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, r.rebind(insert),
		rec.ID, seq, rec.Timestamp,
		string(exporters), string(consignees), string(ports),
		rec.CognitiveScore, string(rec.RiskTier), string(rec.HSRisk), rec.MismatchCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM run_history WHERE seq <= ?`), seq-int64(limit)); err != nil {
		return nil, fmt.Errorf("failed to trim history: %w", err)
	}

	records, err := r.loadHistory(ctx, tx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit history: %w", err)
	}
	return records, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (r *SQLRepository) loadHistory(ctx context.Context, q querier) ([]domain.MemoryRecord, error) {
	rows, err := q.QueryContext(ctx, selectHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	records := []domain.MemoryRecord{}
	for rows.Next() {
		var rec domain.MemoryRecord
		var exporters, consignees, ports, tier string
		var hsRisk sql.NullString

		if err := rows.Scan(
			&rec.ID, &rec.Timestamp,
			&exporters, &consignees, &ports,
			&rec.CognitiveScore, &tier, &hsRisk, &rec.MismatchCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		json.Unmarshal([]byte(exporters), &rec.Exporters)
		json.Unmarshal([]byte(consignees), &rec.Consignees)
		json.Unmarshal([]byte(ports), &rec.DestPorts)
		rec.RiskTier = domain.RiskLevel(tier)
		rec.HSRisk = domain.RiskLevel(hsRisk.String)

		records = append(records, rec)
	}

	return records, rows.Err()
}

// SaveReport stores a full comparison report by ID.
func (r *SQLRepository) SaveReport(ctx context.Context, report *domain.ComparisonReport) error {
	if report == nil || report.ID == "" {
		return fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	files, _ := json.Marshal(nonNil(report.FilesProcessed))

	createdAt := report.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO reports (id, created_at, files, cognitive_score, cognitive_tier, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, r.rebind(query),
		report.ID, createdAt, string(files),
		report.CognitiveScore, string(report.CognitiveTier), string(payload),
	)
	return err
}

// GetReport retrieves a stored report by ID.
func (r *SQLRepository) GetReport(ctx context.Context, reportID string) (*domain.ComparisonReport, error) {
	if reportID == "" {
		return nil, fmt.Errorf("%w: report id is required", ErrInvalidInput)
	}

	var payload string
	err := r.db.QueryRowContext(ctx, r.rebind(`SELECT payload FROM reports WHERE id = ?`), reportID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var report domain.ComparisonReport
	if err := json.Unmarshal([]byte(payload), &report); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", reportID, err)
	}
	return &report, nil
}

// Ping checks database connectivity.
func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Close closes the database connection.
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// rebind converts ? placeholders to $1, $2, etc. for PostgreSQL.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != "postgres" {
		return query
	}

	var b strings.Builder
	n := 1
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			n++
		} else {
			b.WriteByte(query[i])
		}
	}
	return b.String()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
