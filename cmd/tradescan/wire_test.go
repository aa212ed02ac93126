package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensource-finance/tradescan/internal/domain"
	"github.com/opensource-finance/tradescan/internal/memory"
)

const cliInvoice = `COMMERCIAL INVOICE
Invoice No: INV-9
Exporter: Delta Textiles Pvt Ltd
Port of Destination: Hamburg
Cotton Shirts 610510 100 $1,000.00
`

func memoryConfig() *domain.Config {
	c := domain.DefaultConfig()
	c.Repository.Driver = "none"
	c.History.Store = "memory"
	return c
}

func TestHistoryStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		s, err := historyStore(domain.HistoryConfig{Store: "memory"}, nil)
		require.NoError(t, err)
		assert.IsType(t, &memory.InMemoryStore{}, s)
	})

	t.Run("file", func(t *testing.T) {
		s, err := historyStore(domain.HistoryConfig{Store: "file", FilePath: filepath.Join(t.TempDir(), "m.json")}, nil)
		require.NoError(t, err)
		assert.IsType(t, &memory.FileStore{}, s)
	})

	t.Run("sql without repository", func(t *testing.T) {
		_, err := historyStore(domain.HistoryConfig{Store: "sql"}, nil)
		assert.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := historyStore(domain.HistoryConfig{Store: "tape"}, nil)
		assert.ErrorIs(t, err, memory.ErrUnknownStore)
	})
}

func TestBuildApp(t *testing.T) {
	t.Run("memory only", func(t *testing.T) {
		a, err := buildApp(memoryConfig(), false)
		require.NoError(t, err)
		defer a.Close()

		assert.Nil(t, a.repo)
		assert.Nil(t, a.bus)
		assert.Nil(t, a.healthRepo())
		assert.Equal(t, 4, a.engine.RulesCount())
	})

	t.Run("sqlite with bus and extra rule", func(t *testing.T) {
		c := domain.DefaultConfig()
		c.Repository.SQLitePath = filepath.Join(t.TempDir(), "ts.db")
		c.Rules.Extra = []domain.RiskRule{{ID: "extra", Expression: "doc_count > 3", Points: 5, Enabled: true}}

		a, err := buildApp(c, true)
		require.NoError(t, err)
		defer a.Close()

		assert.NotNil(t, a.repo)
		assert.NotNil(t, a.bus)
		assert.Equal(t, 5, a.engine.RulesCount())

		report, err := a.analyzer.CompareTexts(context.Background(), []domain.DocumentInput{{Filename: "a.txt", Text: cliInvoice}})
		require.NoError(t, err)
		stored, err := a.analyzer.Report(context.Background(), report.ID)
		require.NoError(t, err)
		assert.Equal(t, report.ID, stored.ID)
	})

	t.Run("bad extra rule", func(t *testing.T) {
		c := memoryConfig()
		c.Rules.Extra = []domain.RiskRule{{ID: "broken", Expression: "doc_count >", Enabled: true}}
		_, err := buildApp(c, false)
		assert.Error(t, err)
	})

	t.Run("missing sanctions file", func(t *testing.T) {
		c := memoryConfig()
		c.Screening.SanctionsFile = filepath.Join(t.TempDir(), "absent.yaml")
		_, err := buildApp(c, false)
		assert.Error(t, err)
	})
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "tradescan.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("repository:\n  driver: none\nhistory:\n  store: file\n  file_path: "+filepath.Join(dir, "runs.json")+"\nlog:\n  level: error\n"), 0o644))

	invoice := filepath.Join(dir, "invoice.txt")
	require.NoError(t, os.WriteFile(invoice, []byte(cliInvoice), 0o644))

	run := func(args ...string) []byte {
		t.Helper()
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetErr(&bytes.Buffer{})
		rootCmd.SetArgs(append([]string{"--config", cfgPath}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.Bytes()
	}

	t.Run("extract", func(t *testing.T) {
		var res map[string]any
		require.NoError(t, json.Unmarshal(run("extract", invoice), &res))
		assert.Equal(t, "invoice.txt", res["filename"])
		assert.NotContains(t, res, "debug_lines")
	})

	t.Run("compare then history", func(t *testing.T) {
		var report domain.ComparisonReport
		require.NoError(t, json.Unmarshal(run("compare", invoice, invoice), &report))
		assert.Equal(t, []string{"invoice.txt", "invoice.txt"}, report.FilesProcessed)
		assert.Equal(t, 1, report.History.TotalRecords)

		var h domain.RiskHistory
		require.NoError(t, json.Unmarshal(run("history"), &h))
		assert.Equal(t, 1, h.TotalRecords)
	})
}
