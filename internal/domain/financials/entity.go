package financials

import (
	"time"

	"github.com/bryanwahyu/finadvisor/internal/domain/credit"
)

// RecordID identifies a FinancialRecord.
type RecordID int64

// Status is the record lifecycle state.
type Status string

const (
	StatusUploaded Status = "uploaded"
	StatusAnalyzed Status = "analyzed"
)

// CashFlowPoint is one month of the cash flow chart.
type CashFlowPoint struct {
	Month   string  `json:"month"`
	Inflow  float64 `json:"inflow"`
	Outflow float64 `json:"outflow"`
}

// CostSlice is one slice of the cost breakdown chart.
type CostSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Color string  `json:"color,omitempty"`
}

// Document describes the stored upload.
type Document struct {
	Filename    string `json:"filename"`
	StorageKey  string `json:"storageKey"`
	URL         string `json:"documentUrl"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// Aggregate Root: FinancialRecord
//
// Derived fields stay nil until the record is analyzed.
type FinancialRecord struct {
	ID        RecordID  `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Document
	Language     string          `json:"language"`
	Status       Status          `json:"status"`
	Metrics      credit.Metrics  `json:"metrics"`
	CashFlowData []CashFlowPoint `json:"cashFlowData,omitempty"`
	CostData     []CostSlice     `json:"costData,omitempty"`

	Industry    *string           `json:"industry"`
	CreditScore *int              `json:"creditScore"`
	HealthScore *int              `json:"healthScore"`
	RiskLevel   *credit.RiskLevel `json:"riskLevel"`

	LatestReportID string          `json:"-"`
	Report         *AnalysisReport `json:"report,omitempty"`
}

// applyReport copies the derived fields of rep onto the record.
func (r *FinancialRecord) applyReport(rep *AnalysisReport) {
	industry := rep.Industry
	score := rep.CreditScore
	health := rep.HealthScore
	level := rep.RiskLevel

	r.Status = StatusAnalyzed
	r.Industry = &industry
	r.CreditScore = &score
	r.HealthScore = &health
	r.RiskLevel = &level
	r.LatestReportID = rep.ID
	r.Report = rep
}

// MarkAnalyzed transitions an uploaded record using rep.
func (r *FinancialRecord) MarkAnalyzed(rep *AnalysisReport) error {
	if r.Status != StatusUploaded {
		return ErrInvalidState
	}
	r.applyReport(rep)
	return nil
}

// Replace points an analyzed record at a newer report.
func (r *FinancialRecord) Replace(rep *AnalysisReport) error {
	if r.Status != StatusAnalyzed {
		return ErrInvalidState
	}
	r.applyReport(rep)
	return nil
}
