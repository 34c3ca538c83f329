package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	domain "github.com/bryanwahyu/finadvisor/internal/domain/financials"
)

// RecordRepository implements financials.Repository on database/sql.
type RecordRepository struct {
	db      *sql.DB
	dialect Dialect
}

func NewRecordRepository(db *sql.DB, d Dialect) *RecordRepository {
	return &RecordRepository{db: db, dialect: d}
}

// Ping is used by the readiness check.
func (r *RecordRepository) Ping(ctx context.Context) error {
	return eris.Wrapf(r.db.PingContext(ctx), "%s: ping", r.dialect.Name)
}

// Create inserts a new record and sets its generated id.
func (r *RecordRepository) Create(ctx context.Context, rec *domain.FinancialRecord) error {
	metrics, err := marshalText(rec.Metrics)
	if err != nil {
		return err
	}
	cashFlow, err := marshalText(rec.CashFlowData)
	if err != nil {
		return err
	}
	cost, err := marshalText(rec.CostData)
	if err != nil {
		return err
	}

	q := `
INSERT INTO financial_records
  (created_at, filename, storage_key, document_url, content_type, size_bytes,
   status, language, metrics, cash_flow_data, cost_data, latest_report_id)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`
	args := []any{
		rec.CreatedAt.UTC(), rec.Filename, rec.StorageKey, rec.URL, rec.ContentType, rec.SizeBytes,
		string(rec.Status), rec.Language, metrics, cashFlow, cost, "",
	}

	var id int64
	if r.dialect.Returning {
		err = r.db.QueryRowContext(ctx, r.dialect.Rebind(q+" RETURNING id"), args...).Scan(&id)
		if err != nil {
			return eris.Wrapf(err, "%s: insert record", r.dialect.Name)
		}
	} else {
		res, err := r.db.ExecContext(ctx, r.dialect.Rebind(q), args...)
		if err != nil {
			return eris.Wrapf(err, "%s: insert record", r.dialect.Name)
		}
		if id, err = res.LastInsertId(); err != nil {
			return eris.Wrapf(err, "%s: last insert id", r.dialect.Name)
		}
	}
	rec.ID = domain.RecordID(id)
	return nil
}

// Get by ID
func (r *RecordRepository) Get(ctx context.Context, id domain.RecordID) (*domain.FinancialRecord, error) {
	q := r.dialect.Rebind(`SELECT ` + recordColumns + ` FROM financial_records WHERE id = ?`)
	rec, err := scanRecord(r.db.QueryRowContext(ctx, q, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(domain.ErrRecordNotFound, "%s: record %d", r.dialect.Name, id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "%s: get record %d", r.dialect.Name, id)
	}
	return rec, nil
}

// List returns the most recent records first.
func (r *RecordRepository) List(ctx context.Context, limit int) ([]*domain.FinancialRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	q := r.dialect.Rebind(`SELECT ` + recordColumns + `
FROM financial_records
ORDER BY created_at DESC, id DESC
LIMIT ?`)
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, eris.Wrapf(err, "%s: list records", r.dialect.Name)
	}
	defer rows.Close()

	out := make([]*domain.FinancialRecord, 0, limit)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: scan record", r.dialect.Name)
		}
		out = append(out, rec)
	}
	return out, eris.Wrapf(rows.Err(), "%s: list records", r.dialect.Name)
}

// UpdateMetrics replaces metrics and series while the record is uploaded.
func (r *RecordRepository) UpdateMetrics(ctx context.Context, rec *domain.FinancialRecord) error {
	metrics, err := marshalText(rec.Metrics)
	if err != nil {
		return err
	}
	cashFlow, err := marshalText(rec.CashFlowData)
	if err != nil {
		return err
	}
	cost, err := marshalText(rec.CostData)
	if err != nil {
		return err
	}

	q := r.dialect.Rebind(`
UPDATE financial_records
SET metrics = ?, cash_flow_data = ?, cost_data = ?
WHERE id = ? AND status = ?`)
	res, err := r.db.ExecContext(ctx, q, metrics, cashFlow, cost, int64(rec.ID), string(domain.StatusUploaded))
	if err != nil {
		return eris.Wrapf(err, "%s: update metrics %d", r.dialect.Name, rec.ID)
	}
	// MySQL reports zero affected rows when nothing changed.
	return r.checkTransition(ctx, r.db, res, rec.ID, domain.StatusUploaded)
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// checkTransition turns a zero-row conditional update into ErrRecordNotFound
// or ErrInvalidState. A row already in okStatus counts as applied.
func (r *RecordRepository) checkTransition(ctx context.Context, q querier, res sql.Result, id domain.RecordID, okStatus domain.Status) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "%s: rows affected", r.dialect.Name)
	}
	if n > 0 {
		return nil
	}

	var status string
	err = q.QueryRowContext(ctx, r.dialect.Rebind(`SELECT status FROM financial_records WHERE id = ?`), int64(id)).Scan(&status)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return eris.Wrapf(domain.ErrRecordNotFound, "%s: record %d", r.dialect.Name, id)
	case err != nil:
		return eris.Wrapf(err, "%s: record status %d", r.dialect.Name, id)
	case okStatus != "" && domain.Status(status) == okStatus:
		return nil
	default:
		return eris.Wrapf(domain.ErrInvalidState, "%s: record %d is %s", r.dialect.Name, id, status)
	}
}
