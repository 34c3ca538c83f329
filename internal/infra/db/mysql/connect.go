package mysql

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rotisserie/eris"

	"github.com/bryanwahyu/finadvisor/internal/infra/db"
)

// Dialect expects a DSN with parseTime=true.
var Dialect = db.Dialect{
	Name: "mysql",
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS financial_records (
	id               BIGINT AUTO_INCREMENT PRIMARY KEY,
	created_at       DATETIME(6) NOT NULL,
	filename         VARCHAR(255) NOT NULL,
	storage_key      VARCHAR(512) NOT NULL,
	document_url     VARCHAR(1024) NOT NULL,
	content_type     VARCHAR(128) NOT NULL,
	size_bytes       BIGINT NOT NULL,
	status           VARCHAR(16) NOT NULL,
	language         VARCHAR(32) NOT NULL,
	metrics          TEXT NOT NULL,
	cash_flow_data   MEDIUMTEXT NOT NULL,
	cost_data        MEDIUMTEXT NOT NULL,
	industry         VARCHAR(64) NULL,
	credit_score     INT NULL,
	health_score     INT NULL,
	risk_level       VARCHAR(16) NULL,
	latest_report_id VARCHAR(36) NOT NULL DEFAULT '',
	INDEX idx_financial_records_created_at (created_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS analysis_reports (
	id               VARCHAR(36) PRIMARY KEY,
	record_id        BIGINT NOT NULL,
	credit_score     INT NOT NULL,
	health_score     INT NOT NULL,
	risk_level       VARCHAR(16) NOT NULL,
	risks            TEXT NOT NULL,
	industry         VARCHAR(64) NOT NULL,
	language         VARCHAR(32) NOT NULL,
	advisory_status  VARCHAR(16) NOT NULL,
	advisory_summary MEDIUMTEXT NULL,
	advisory_error   TEXT NOT NULL,
	recommendations  TEXT NOT NULL,
	created_at       DATETIME(6) NOT NULL,
	INDEX idx_analysis_reports_record_id (record_id, created_at),
	CONSTRAINT fk_analysis_reports_record FOREIGN KEY (record_id) REFERENCES financial_records(id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

func Connect(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "mysql: open")
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(30 * time.Minute)

	// test ping
	ctx2, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx2); err != nil {
		conn.Close()
		return nil, eris.Wrap(err, "mysql: ping")
	}
	return conn, nil
}
