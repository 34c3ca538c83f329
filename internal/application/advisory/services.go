package advisory

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
	"github.com/bryanwahyu/finadvisor/internal/domain/financials"
	"github.com/bryanwahyu/finadvisor/internal/domain/industry"
)

// InsightsCommand asks for free-text advice on ad-hoc financial data.
type InsightsCommand struct {
	Financials any
	Industry   string
	Language   string
}

type Service struct {
	client     advisory.Client
	industries *industry.Catalog
}

func NewService(client advisory.Client, industries *industry.Catalog) *Service {
	return &Service{client: client, industries: industries}
}

// Insights validates the command and forwards it to the advisor. Industries
// outside the catalog are passed through as given.
func (s *Service) Insights(ctx context.Context, cmd InsightsCommand) (string, error) {
	if cmd.Financials == nil {
		return "", financials.Invalid("financials is required")
	}
	ind := strings.TrimSpace(cmd.Industry)
	if ind == "" {
		return "", financials.Invalid("industry is required")
	}
	if canonical, ok := s.industries.Lookup(ind); ok {
		ind = canonical
	}

	lang := advisory.DefaultLanguage
	if strings.TrimSpace(cmd.Language) != "" {
		l, ok := advisory.NormalizeLanguage(cmd.Language)
		if !ok {
			return "", financials.Invalid("language %q is not supported, expected one of %s", cmd.Language, strings.Join(advisory.Languages, ", "))
		}
		lang = l
	}

	out, err := s.client.GetAdvisory(ctx, advisory.Request{Financials: cmd.Financials, Industry: ind, Language: lang})
	if err != nil {
		zap.L().Warn("insights failed", zap.String("industry", ind), zap.Error(err))
		return "", err
	}
	return out, nil
}
