package credit

import (
	"errors"
	"fmt"
)

// ErrMissingField is matched by every MissingFieldError.
var ErrMissingField = errors.New("missing field")

// MissingFieldError reports the first required metric that is absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field: %s", e.Field)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// Metrics is the typed analysis input extracted from an uploaded document.
// Pointers keep "absent" distinct from zero.
type Metrics struct {
	CashFlow     *float64 `json:"cashFlow,omitempty"`
	Debt         *float64 `json:"debt,omitempty"`
	Assets       *float64 `json:"assets,omitempty"`
	GSTCompliant *bool    `json:"gstCompliant,omitempty"`
	Receivables  *float64 `json:"receivables,omitempty"`
	Revenue      *float64 `json:"revenue,omitempty"`
	DebtRatio    *float64 `json:"debtRatio,omitempty"`
}

// Validate checks every field in canonical order.
func (m Metrics) Validate() error {
	return m.require(FieldCashFlow, FieldDebt, FieldAssets, FieldGSTCompliant,
		FieldReceivables, FieldRevenue, FieldDebtRatio)
}

// Field names as they appear on the wire.
const (
	FieldCashFlow     = "cashFlow"
	FieldDebt         = "debt"
	FieldAssets       = "assets"
	FieldGSTCompliant = "gstCompliant"
	FieldReceivables  = "receivables"
	FieldRevenue      = "revenue"
	FieldDebtRatio    = "debtRatio"
)

func (m Metrics) require(fields ...string) error {
	for _, f := range fields {
		if !m.has(f) {
			return &MissingFieldError{Field: f}
		}
	}
	return nil
}

func (m Metrics) has(field string) bool {
	switch field {
	case FieldCashFlow:
		return m.CashFlow != nil
	case FieldDebt:
		return m.Debt != nil
	case FieldAssets:
		return m.Assets != nil
	case FieldGSTCompliant:
		return m.GSTCompliant != nil
	case FieldReceivables:
		return m.Receivables != nil
	case FieldRevenue:
		return m.Revenue != nil
	case FieldDebtRatio:
		return m.DebtRatio != nil
	}
	return false
}

// Float and Bool build metric pointers.
func Float(v float64) *float64 { return &v }
func Bool(v bool) *bool { return &v }
