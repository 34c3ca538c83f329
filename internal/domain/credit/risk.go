package credit

// Risk labels, in evaluation order.
const (
	RiskNegativeCashFlow = "Negative cash flow"
	RiskHighReceivables  = "High accounts receivable"
	RiskHighLeverage     = "High leverage"
)

const (
	receivablesShareLimit = 0.4
	debtRatioLimit        = 2
)

// Risks returns the triggered risk labels in check order. An empty slice
// means no risk was detected.
func Risks(m Metrics) ([]string, error) {
	if err := m.require(FieldCashFlow, FieldReceivables, FieldRevenue, FieldDebtRatio); err != nil {
		return nil, err
	}

	risks := make([]string, 0, 3)
	if *m.CashFlow < 0 {
		risks = append(risks, RiskNegativeCashFlow)
	}
	if *m.Receivables > *m.Revenue*receivablesShareLimit {
		risks = append(risks, RiskHighReceivables)
	}
	if *m.DebtRatio > debtRatioLimit {
		risks = append(risks, RiskHighLeverage)
	}
	return risks, nil
}
