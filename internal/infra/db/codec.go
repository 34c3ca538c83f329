package db

import (
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/bryanwahyu/finadvisor/internal/domain/credit"
	domain "github.com/bryanwahyu/finadvisor/internal/domain/financials"
)

type scannable interface {
	Scan(dest ...any) error
}

func marshalText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", eris.Wrap(err, "db: marshal")
	}
	return string(b), nil
}

func unmarshalText(s string, v any) error {
	if s == "" || s == "null" {
		return nil
	}
	return eris.Wrap(json.Unmarshal([]byte(s), v), "db: unmarshal")
}

// stringsOrEmpty keeps empty lists as [] in storage and in JSON output.
func stringsOrEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

const recordColumns = `id, created_at, filename, storage_key, document_url, content_type, size_bytes,
       status, language, metrics, cash_flow_data, cost_data,
       industry, credit_score, health_score, risk_level, latest_report_id`

func scanRecord(row scannable) (*domain.FinancialRecord, error) {
	var (
		r                        domain.FinancialRecord
		id                       int64
		metrics, cashFlow, cost  string
		industry, riskLevel      sql.NullString
		creditScore, healthScore sql.NullInt64
	)
	err := row.Scan(
		&id, &r.CreatedAt, &r.Filename, &r.StorageKey, &r.URL, &r.ContentType, &r.SizeBytes,
		&r.Status, &r.Language, &metrics, &cashFlow, &cost,
		&industry, &creditScore, &healthScore, &riskLevel, &r.LatestReportID,
	)
	if err != nil {
		return nil, err
	}
	r.ID = domain.RecordID(id)
	r.CreatedAt = r.CreatedAt.UTC()

	if err := unmarshalText(metrics, &r.Metrics); err != nil {
		return nil, err
	}
	if err := unmarshalText(cashFlow, &r.CashFlowData); err != nil {
		return nil, err
	}
	if err := unmarshalText(cost, &r.CostData); err != nil {
		return nil, err
	}

	if industry.Valid {
		s := industry.String
		r.Industry = &s
	}
	if creditScore.Valid {
		n := int(creditScore.Int64)
		r.CreditScore = &n
	}
	if healthScore.Valid {
		n := int(healthScore.Int64)
		r.HealthScore = &n
	}
	if riskLevel.Valid {
		l := credit.RiskLevel(riskLevel.String)
		r.RiskLevel = &l
	}
	return &r, nil
}

const reportColumns = `id, record_id, credit_score, health_score, risk_level, risks, industry, language,
       advisory_status, advisory_summary, advisory_error, recommendations, created_at`

func scanReport(row scannable) (*domain.AnalysisReport, error) {
	var (
		rep                    domain.AnalysisReport
		recordID               int64
		risks, recommendations string
		summary                sql.NullString
	)
	err := row.Scan(
		&rep.ID, &recordID, &rep.CreditScore, &rep.HealthScore, &rep.RiskLevel, &risks, &rep.Industry, &rep.Language,
		&rep.AdvisoryStatus, &summary, &rep.AdvisoryError, &recommendations, &rep.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	rep.RecordID = domain.RecordID(recordID)
	rep.CreatedAt = rep.CreatedAt.UTC()
	if summary.Valid {
		s := summary.String
		rep.AdvisorySummary = &s
	}
	if err := unmarshalText(risks, &rep.Risks); err != nil {
		return nil, err
	}
	if err := unmarshalText(recommendations, &rep.Recommendations); err != nil {
		return nil, err
	}
	rep.Risks = stringsOrEmpty(rep.Risks)
	rep.Recommendations = stringsOrEmpty(rep.Recommendations)
	return &rep, nil
}
