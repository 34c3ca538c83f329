package financials

import (
	"time"

	"github.com/bryanwahyu/finadvisor/internal/domain/credit"
)

// AdvisoryStatus records whether the advisory step produced a summary.
type AdvisoryStatus string

const (
	AdvisoryCompleted AdvisoryStatus = "completed"
	AdvisoryFailed    AdvisoryStatus = "failed"
)

// AnalysisReport is the immutable result of one analysis run.
type AnalysisReport struct {
	ID              string           `json:"id"`
	RecordID        RecordID         `json:"recordId"`
	CreditScore     int              `json:"creditScore"`
	HealthScore     int              `json:"healthScore"`
	RiskLevel       credit.RiskLevel `json:"riskLevel"`
	Risks           []string         `json:"risks"`
	Industry        string           `json:"industry"`
	Language        string           `json:"language"`
	AdvisoryStatus  AdvisoryStatus   `json:"advisoryStatus"`
	AdvisorySummary *string          `json:"advisorySummary"`
	AdvisoryError   string           `json:"advisoryError,omitempty"`
	Recommendations []string         `json:"recommendations"`
	CreatedAt       time.Time        `json:"createdAt"`
}

// Degraded reports whether the advisory summary is missing.
func (r *AnalysisReport) Degraded() bool {
	return r.AdvisoryStatus != AdvisoryCompleted
}
