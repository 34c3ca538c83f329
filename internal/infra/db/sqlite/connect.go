package sqlite

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bryanwahyu/finadvisor/internal/infra/db"
)

var Dialect = db.Dialect{
	Name: "sqlite",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS financial_records (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	created_at       DATETIME NOT NULL,
	filename         TEXT NOT NULL,
	storage_key      TEXT NOT NULL,
	document_url     TEXT NOT NULL,
	content_type     TEXT NOT NULL,
	size_bytes       INTEGER NOT NULL,
	status           TEXT NOT NULL,
	language         TEXT NOT NULL,
	metrics          TEXT NOT NULL,
	cash_flow_data   TEXT NOT NULL,
	cost_data        TEXT NOT NULL,
	industry         TEXT,
	credit_score     INTEGER,
	health_score     INTEGER,
	risk_level       TEXT,
	latest_report_id TEXT NOT NULL DEFAULT ''
)`,
		`CREATE TABLE IF NOT EXISTS analysis_reports (
	id               TEXT PRIMARY KEY,
	record_id        INTEGER NOT NULL REFERENCES financial_records(id),
	credit_score     INTEGER NOT NULL,
	health_score     INTEGER NOT NULL,
	risk_level       TEXT NOT NULL,
	risks            TEXT NOT NULL,
	industry         TEXT NOT NULL,
	language         TEXT NOT NULL,
	advisory_status  TEXT NOT NULL,
	advisory_summary TEXT,
	advisory_error   TEXT NOT NULL,
	recommendations  TEXT NOT NULL,
	created_at       DATETIME NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_financial_records_created_at ON financial_records(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_reports_record_id ON analysis_reports(record_id, created_at)`,
	},
}

// Connect opens a SQLite database at dsn and configures WAL mode.
func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	// One connection keeps the pragmas in effect and serialises writers.
	conn.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := conn.ExecContext(ctx, pragma); err != nil {
			conn.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return conn, nil
}
