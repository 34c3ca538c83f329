package advisory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
	"github.com/bryanwahyu/finadvisor/internal/domain/financials"
	"github.com/bryanwahyu/finadvisor/internal/domain/industry"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) GetAdvisory(ctx context.Context, req advisory.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func TestInsights(t *testing.T) {
	m := new(mockClient)
	data := map[string]any{"revenue": 1000.0}
	m.On("GetAdvisory", mock.Anything, advisory.Request{Financials: data, Industry: "Manufacturing", Language: "English"}).
		Return("Looks fine.", nil).Once()

	svc := NewService(m, industry.Default())
	out, err := svc.Insights(context.Background(), InsightsCommand{Financials: data, Industry: "manufacturing"})
	require.NoError(t, err)
	assert.Equal(t, "Looks fine.", out)
	m.AssertExpectations(t)
}

func TestInsights_FreeFormIndustry(t *testing.T) {
	m := new(mockClient)
	m.On("GetAdvisory", mock.Anything, mock.MatchedBy(func(r advisory.Request) bool {
		return r.Industry == "Artisanal cheese" && r.Language == "Hindi"
	})).Return("ok", nil).Once()

	svc := NewService(m, industry.Default())
	_, err := svc.Insights(context.Background(), InsightsCommand{Financials: map[string]any{}, Industry: "Artisanal cheese", Language: "HINDI"})
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestInsights_Validation(t *testing.T) {
	svc := NewService(new(mockClient), industry.Default())

	for _, cmd := range []InsightsCommand{
		{Industry: "Retail"},
		{Financials: map[string]any{}},
		{Financials: map[string]any{}, Industry: "Retail", Language: "French"},
	} {
		_, err := svc.Insights(context.Background(), cmd)
		assert.ErrorIs(t, err, financials.ErrValidation)
	}
}

func TestInsights_UpstreamError(t *testing.T) {
	m := new(mockClient)
	m.On("GetAdvisory", mock.Anything, mock.Anything).Return("", advisory.ErrQuotaExceeded)

	svc := NewService(m, industry.Default())
	_, err := svc.Insights(context.Background(), InsightsCommand{Financials: map[string]any{}, Industry: "Retail"})
	assert.ErrorIs(t, err, advisory.ErrQuotaExceeded)
}
