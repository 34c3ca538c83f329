package credit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullMetrics(cashFlow, debt, assets float64, gst bool, receivables, revenue, debtRatio float64) Metrics {
	return Metrics{
		CashFlow:     Float(cashFlow),
		Debt:         Float(debt),
		Assets:       Float(assets),
		GSTCompliant: Bool(gst),
		Receivables:  Float(receivables),
		Revenue:      Float(revenue),
		DebtRatio:    Float(debtRatio),
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		want int
	}{
		{"no penalties", fullMetrics(5, 0, 0, true, 0, 0, 0), 700},
		{"negative cash flow only", fullMetrics(-1, 0, 0, true, 0, 0, 0), 600},
		{"debt above assets only", fullMetrics(10, 200, 100, true, 0, 0, 0), 620},
		{"gst non compliant only", fullMetrics(10, 0, 0, false, 0, 0, 0), 640},
		{"all penalties", fullMetrics(-50, 200, 100, false, 0, 0, 0), 460},
		{"debt equal assets is not a penalty", fullMetrics(1, 100, 100, true, 0, 0, 0), 700},
		{"zero cash flow is not negative", fullMetrics(0, 0, 0, true, 0, 0, 0), 700},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.m)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, FloorScore)
			assert.LessOrEqual(t, got, BaseScore)
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	m := fullMetrics(-3, 9, 4, false, 1, 1, 1)
	first, err := Score(m)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := Score(m)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestScore_MissingField(t *testing.T) {
	tests := []struct {
		name  string
		m     Metrics
		field string
	}{
		{"empty", Metrics{}, FieldCashFlow},
		{"no debt", Metrics{CashFlow: Float(1)}, FieldDebt},
		{"no assets", Metrics{CashFlow: Float(1), Debt: Float(1)}, FieldAssets},
		{"no gst flag", Metrics{CashFlow: Float(1), Debt: Float(1), Assets: Float(1)}, FieldGSTCompliant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Score(tt.m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingField))

			var mf *MissingFieldError
			require.True(t, errors.As(err, &mf))
			assert.Equal(t, tt.field, mf.Field)
		})
	}
}

func TestScore_IgnoresRiskOnlyFields(t *testing.T) {
	m := Metrics{CashFlow: Float(1), Debt: Float(0), Assets: Float(0), GSTCompliant: Bool(true)}
	got, err := Score(m)
	require.NoError(t, err)
	assert.Equal(t, 700, got)
}

func TestRisks(t *testing.T) {
	tests := []struct {
		name string
		m    Metrics
		want []string
	}{
		{"none", fullMetrics(5, 0, 0, true, 10, 100, 1), []string{}},
		{"negative cash flow", fullMetrics(-1, 0, 0, true, 0, 0, 0), []string{RiskNegativeCashFlow}},
		{"debt above assets adds no label", fullMetrics(10, 200, 100, true, 0, 0, 0), []string{}},
		{"receivables and leverage in order", fullMetrics(5, 0, 0, true, 50, 100, 3), []string{RiskHighReceivables, RiskHighLeverage}},
		{"all three", fullMetrics(-5, 0, 0, true, 50, 100, 2.5), []string{RiskNegativeCashFlow, RiskHighReceivables, RiskHighLeverage}},
		{"receivables at exactly 40 percent", fullMetrics(5, 0, 0, true, 40, 100, 0), []string{}},
		{"debt ratio at exactly 2", fullMetrics(5, 0, 0, true, 0, 100, 2), []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Risks(tt.m)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRisks_MissingField(t *testing.T) {
	m := Metrics{CashFlow: Float(1), Receivables: Float(1), Revenue: Float(1)}
	_, err := Risks(m)
	require.Error(t, err)

	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, FieldDebtRatio, mf.Field)
}

func TestAssess(t *testing.T) {
	a, err := Assess(fullMetrics(5, 0, 0, true, 50, 100, 3))
	require.NoError(t, err)
	assert.Equal(t, 700, a.CreditScore)
	assert.Equal(t, []string{RiskHighReceivables, RiskHighLeverage}, a.Risks)
	assert.Equal(t, 80, a.HealthScore)
	assert.Equal(t, RiskHigh, a.RiskLevel)
}

func TestAssess_RequiresEveryField(t *testing.T) {
	m := fullMetrics(5, 0, 0, true, 0, 0, 0)
	m.Revenue = nil

	_, err := Assess(m)
	var mf *MissingFieldError
	require.True(t, errors.As(err, &mf))
	assert.Equal(t, FieldRevenue, mf.Field)
}

func TestHealthScore(t *testing.T) {
	assert.Equal(t, 100, HealthScore(700, 0))
	assert.Equal(t, 75, HealthScore(600, 0))
	assert.Equal(t, 0, HealthScore(300, 0))
	assert.Equal(t, 0, HealthScore(300, 3))
	assert.Equal(t, 30, HealthScore(460, 1))
}

func TestLevelFor(t *testing.T) {
	assert.Equal(t, RiskLow, LevelFor(0))
	assert.Equal(t, RiskMedium, LevelFor(1))
	assert.Equal(t, RiskHigh, LevelFor(2))
	assert.Equal(t, RiskHigh, LevelFor(3))
}
