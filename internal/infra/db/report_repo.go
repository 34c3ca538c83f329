package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	domain "github.com/bryanwahyu/finadvisor/internal/domain/financials"
)

// CompleteAnalysis stores rep and flips the record to analyzed in one
// transaction, guarded by status = 'uploaded'.
func (r *RecordRepository) CompleteAnalysis(ctx context.Context, rec *domain.FinancialRecord, rep *domain.AnalysisReport) error {
	return r.withReport(ctx, rec, rep, `
UPDATE financial_records
SET status = ?, industry = ?, credit_score = ?, health_score = ?, risk_level = ?, latest_report_id = ?
WHERE id = ? AND status = ?`,
		string(domain.StatusAnalyzed), rep.Industry, rep.CreditScore, rep.HealthScore, string(rep.RiskLevel), rep.ID,
		int64(rec.ID), string(domain.StatusUploaded),
	)
}

// AppendReport points an analyzed record at rep, provided previousID is
// still its latest report.
func (r *RecordRepository) AppendReport(ctx context.Context, rec *domain.FinancialRecord, rep *domain.AnalysisReport, previousID string) error {
	return r.withReport(ctx, rec, rep, `
UPDATE financial_records
SET industry = ?, credit_score = ?, health_score = ?, risk_level = ?, latest_report_id = ?
WHERE id = ? AND status = ? AND latest_report_id = ?`,
		rep.Industry, rep.CreditScore, rep.HealthScore, string(rep.RiskLevel), rep.ID,
		int64(rec.ID), string(domain.StatusAnalyzed), previousID,
	)
}

func (r *RecordRepository) withReport(ctx context.Context, rec *domain.FinancialRecord, rep *domain.AnalysisReport, update string, args ...any) (err error) {
	risks, err := marshalText(stringsOrEmpty(rep.Risks))
	if err != nil {
		return err
	}
	recs, err := marshalText(stringsOrEmpty(rep.Recommendations))
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrapf(err, "%s: begin", r.dialect.Name)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, r.dialect.Rebind(update), args...)
	if err != nil {
		return eris.Wrapf(err, "%s: update record %d", r.dialect.Name, rec.ID)
	}
	if err = r.checkTransition(ctx, tx, res, rec.ID, ""); err != nil {
		return err
	}

	var summary sql.NullString
	if rep.AdvisorySummary != nil {
		summary = sql.NullString{String: *rep.AdvisorySummary, Valid: true}
	}
	_, err = tx.ExecContext(ctx, r.dialect.Rebind(`
INSERT INTO analysis_reports
  (id, record_id, credit_score, health_score, risk_level, risks, industry, language,
   advisory_status, advisory_summary, advisory_error, recommendations, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`),
		rep.ID, int64(rec.ID), rep.CreditScore, rep.HealthScore, string(rep.RiskLevel), risks, rep.Industry, rep.Language,
		string(rep.AdvisoryStatus), summary, rep.AdvisoryError, recs, rep.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrapf(err, "%s: insert report %s", r.dialect.Name, rep.ID)
	}

	if err = tx.Commit(); err != nil {
		return eris.Wrapf(err, "%s: commit", r.dialect.Name)
	}
	return nil
}

// LatestReport returns the report the record points at, nil when it has none.
func (r *RecordRepository) LatestReport(ctx context.Context, id domain.RecordID) (*domain.AnalysisReport, error) {
	q := r.dialect.Rebind(`
SELECT ` + reportColumns + `
FROM analysis_reports
WHERE id = (SELECT latest_report_id FROM financial_records WHERE id = ?)`)
	rep, err := scanReport(r.db.QueryRowContext(ctx, q, int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "%s: latest report %d", r.dialect.Name, id)
	}
	return rep, nil
}

// Reports returns the report history of a record, newest first.
func (r *RecordRepository) Reports(ctx context.Context, id domain.RecordID) ([]*domain.AnalysisReport, error) {
	q := r.dialect.Rebind(`
SELECT ` + reportColumns + `
FROM analysis_reports
WHERE record_id = ?
ORDER BY created_at DESC`)
	rows, err := r.db.QueryContext(ctx, q, int64(id))
	if err != nil {
		return nil, eris.Wrapf(err, "%s: list reports %d", r.dialect.Name, id)
	}
	defer rows.Close()

	out := []*domain.AnalysisReport{}
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, eris.Wrapf(err, "%s: scan report", r.dialect.Name)
		}
		out = append(out, rep)
	}
	return out, eris.Wrapf(rows.Err(), "%s: list reports %d", r.dialect.Name, id)
}
