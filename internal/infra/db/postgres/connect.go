package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/rotisserie/eris"

	"github.com/bryanwahyu/finadvisor/internal/infra/db"
)

var Dialect = db.Dialect{
	Name:      "postgres",
	Numbered:  true,
	Returning: true,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS financial_records (
	id               BIGSERIAL PRIMARY KEY,
	created_at       TIMESTAMPTZ NOT NULL,
	filename         TEXT NOT NULL,
	storage_key      TEXT NOT NULL,
	document_url     TEXT NOT NULL,
	content_type     TEXT NOT NULL,
	size_bytes       BIGINT NOT NULL,
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
	record_id        BIGINT NOT NULL REFERENCES financial_records(id),
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
	created_at       TIMESTAMPTZ NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_financial_records_created_at ON financial_records(created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_analysis_reports_record_id ON analysis_reports(record_id, created_at)`,
	},
}

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: open")
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(30 * time.Minute)

	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx2); err != nil {
		conn.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return conn, nil
}
