package repository

// Schema definitions for the tradescan database.
// Compatible with both SQLite and PostgreSQL.

// schemaRunHistory holds the bounded comparison run log. seq orders runs
// oldest first and is assigned inside the append transaction.
const schemaRunHistory = `
CREATE TABLE IF NOT EXISTS run_history (
    id TEXT PRIMARY KEY,
    seq BIGINT NOT NULL,
    recorded_at TIMESTAMP NOT NULL,
    exporters TEXT NOT NULL,
    consignees TEXT NOT NULL,
    ports TEXT NOT NULL,
    cognitive_score INTEGER NOT NULL,
    risk_tier TEXT NOT NULL,
    hs_risk TEXT,
    mismatch_count INTEGER NOT NULL DEFAULT 0
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_run_history_seq ON run_history(seq);
`

const schemaReports = `
CREATE TABLE IF NOT EXISTS reports (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    files TEXT NOT NULL,
    cognitive_score INTEGER NOT NULL,
    cognitive_tier TEXT NOT NULL,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_reports_tier ON reports(cognitive_tier);
`

// AllSchemas returns all schema statements in order.
func AllSchemas() []string {
	return []string{
		schemaRunHistory,
		schemaReports,
	}
}
