package repository

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-finance/tradescan/internal/domain"
)

func newTestRepo(t *testing.T, path string) *SQLRepository {
	t.Helper()
	repo, err := New(domain.RepositoryConfig{Driver: "sqlite", SQLitePath: path})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	repo := newTestRepo(t, filepath.Join(t.TempDir(), "tradescan-test.db"))
	ctx := context.Background()

	t.Run("Ping", func(t *testing.T) {
		if err := repo.Ping(ctx); err != nil {
			t.Errorf("Ping failed: %v", err)
		}
	})

	t.Run("EmptyHistory", func(t *testing.T) {
		records, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(records) != 0 {
			t.Errorf("expected empty history, got %d records", len(records))
		}
	})

	t.Run("AppendAndLoad", func(t *testing.T) {
		rec := domain.MemoryRecord{
			Timestamp:      time.Now().UTC(),
			Exporters:      []string{"Acme Exports"},
			Consignees:     []string{"Global Imports"},
			DestPorts:      []string{"Hamburg"},
			CognitiveScore: 97,
			RiskTier:       domain.SeverityLow,
			HSRisk:         domain.SeverityLow,
			MismatchCount:  1,
		}

		records, err := repo.AppendAndTrim(ctx, rec, 10)
		if err != nil {
			t.Fatalf("AppendAndTrim failed: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}

		got := records[0]
		if got.ID == "" {
			t.Error("expected generated record id")
		}
		if got.CognitiveScore != 97 || got.RiskTier != domain.SeverityLow || got.MismatchCount != 1 {
			t.Errorf("unexpected record: %+v", got)
		}
		if len(got.Exporters) != 1 || got.Exporters[0] != "Acme Exports" {
			t.Errorf("unexpected exporters: %v", got.Exporters)
		}
		if len(got.DestPorts) != 1 || got.DestPorts[0] != "Hamburg" {
			t.Errorf("unexpected ports: %v", got.DestPorts)
		}
	})

	t.Run("TrimKeepsNewest", func(t *testing.T) {
		for i := 0; i < 12; i++ {
			rec := domain.MemoryRecord{CognitiveScore: i, RiskTier: domain.SeverityHigh}
			if _, err := repo.AppendAndTrim(ctx, rec, 10); err != nil {
				t.Fatalf("AppendAndTrim %d failed: %v", i, err)
			}
		}

		records, err := repo.Load(ctx)
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(records) != 10 {
			t.Fatalf("expected 10 records, got %d", len(records))
		}
		if records[0].CognitiveScore != 2 || records[9].CognitiveScore != 11 {
			t.Errorf("unexpected window: first=%d last=%d", records[0].CognitiveScore, records[9].CognitiveScore)
		}
		if records[0].Exporters == nil {
			t.Error("expected non-nil exporters slice")
		}
	})

	t.Run("InvalidLimit", func(t *testing.T) {
		_, err := repo.AppendAndTrim(ctx, domain.MemoryRecord{}, 0)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("SaveAndGetReport", func(t *testing.T) {
		report := &domain.ComparisonReport{
			ID:             "report-001",
			CreatedAt:      time.Now().UTC(),
			FilesProcessed: []string{"invoice.txt", "packing.txt"},
			CognitiveScore: 88,
			CognitiveTier:  domain.SeverityMedium,
			Mismatches: []domain.MismatchEntry{
				{Field: "Amount", Values: []string{"100", "150"}, Severity: domain.SeverityHigh},
			},
		}

		if err := repo.SaveReport(ctx, report); err != nil {
			t.Fatalf("SaveReport failed: %v", err)
		}

		got, err := repo.GetReport(ctx, "report-001")
		if err != nil {
			t.Fatalf("GetReport failed: %v", err)
		}
		if got.CognitiveScore != 88 || got.CognitiveTier != domain.SeverityMedium {
			t.Errorf("unexpected report: %+v", got)
		}
		if len(got.FilesProcessed) != 2 || len(got.Mismatches) != 1 {
			t.Errorf("report payload not preserved: %+v", got)
		}
	})

	t.Run("GetMissingReport", func(t *testing.T) {
		_, err := repo.GetReport(ctx, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("SaveReportRequiresID", func(t *testing.T) {
		err := repo.SaveReport(ctx, &domain.ComparisonReport{})
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("DuplicateReportRejected", func(t *testing.T) {
		err := repo.SaveReport(ctx, &domain.ComparisonReport{ID: "report-001"})
		if err == nil {
			t.Error("expected duplicate report id to fail")
		}
	})
}

func TestHistorySurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	repo, err := New(domain.RepositoryConfig{Driver: "sqlite", SQLitePath: path})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	for i := 0; i < 3; i++ {
		rec := domain.MemoryRecord{Exporters: []string{fmt.Sprintf("exp-%d", i)}, RiskTier: domain.SeverityLow}
		if _, err := repo.AppendAndTrim(ctx, rec, 10); err != nil {
			t.Fatalf("AppendAndTrim failed: %v", err)
		}
	}
	repo.Close()

	reopened := newTestRepo(t, path)
	records, err := reopened.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 3 || records[2].Exporters[0] != "exp-2" {
		t.Errorf("unexpected history after reopen: %+v", records)
	}
}

func TestInMemorySQLite(t *testing.T) {
	repo := newTestRepo(t, ":memory:")
	ctx := context.Background()

	if _, err := repo.AppendAndTrim(ctx, domain.MemoryRecord{RiskTier: domain.SeverityLow}, 5); err != nil {
		t.Fatalf("AppendAndTrim failed: %v", err)
	}
	records, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 record, got %d", len(records))
	}
}

func TestUnsupportedDriver(t *testing.T) {
	if _, err := New(domain.RepositoryConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLRepository{driver: "postgres"}
	if got := pg.rebind("SELECT * FROM t WHERE a = ? AND b = ?"); got != "SELECT * FROM t WHERE a = $1 AND b = $2" {
		t.Errorf("unexpected postgres rebind: %s", got)
	}

	lite := &SQLRepository{driver: "sqlite"}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite query must be unchanged, got %s", got)
	}
}

func TestPostgresDSN(t *testing.T) {
	dsn := postgresDSN(domain.RepositoryConfig{PostgresUser: "scan", PostgresPassword: "it's secret"})
	want := `host='localhost' port='5432' user='scan' password='it\'s secret' dbname='tradescan' sslmode='disable' application_name='tradescan' connect_timeout='5'`
	if dsn != want {
		t.Errorf("unexpected dsn:\n got %s\nwant %s", dsn, want)
	}

	dsn = postgresDSN(domain.RepositoryConfig{PostgresHost: "db", PostgresPort: 6543, PostgresDB: "runs", PostgresSSLMode: "require"})
	want = `host='db' port='6543' dbname='runs' sslmode='require' application_name='tradescan' connect_timeout='5'`
	if dsn != want {
		t.Errorf("unexpected dsn without credentials:\n got %s\nwant %s", dsn, want)
	}
}
