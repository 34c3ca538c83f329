package financials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bryanwahyu/finadvisor/internal/application"
	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
	"github.com/bryanwahyu/finadvisor/internal/domain/credit"
	domain "github.com/bryanwahyu/finadvisor/internal/domain/financials"
	"github.com/bryanwahyu/finadvisor/internal/domain/industry"
	"github.com/bryanwahyu/finadvisor/internal/metrics"
)

// Policy decides what happens to an analysis when the advisory call fails.
type Policy string

const (
	// PolicyPersist stores a degraded report and still marks the record analyzed.
	PolicyPersist Policy = "persist"
	// PolicyFail returns the upstream error and leaves the record untouched.
	PolicyFail Policy = "fail"
)

const (
	DefaultMaxUploadBytes = 10 << 20
	DefaultListLimit      = 20
	MaxListLimit          = 100
)

// AllowedExtensions are the document types accepted on upload.
var AllowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".csv":  "text/csv",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
}

// Service implements use-cases untuk FinancialRecord.
// Service is safe for concurrent use.
type Service struct {
	Repo            domain.Repository
	Documents       domain.DocumentStore
	Advisor         advisory.Client
	Locker          domain.Locker
	Industries      *industry.Catalog
	Clock           application.Clock
	Policy          Policy
	DefaultLanguage string
	MaxUploadBytes  int64
}

//
// ==== USE CASES ====
//

// UploadCommand untuk upload dokumen baru
type UploadCommand struct {
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
	Language     string
	Metrics      json.RawMessage
	CashFlowData json.RawMessage
	CostData     json.RawMessage
}

// MetricsCommand replaces the analysis input of an uploaded record.
type MetricsCommand struct {
	Metrics      json.RawMessage
	CashFlowData json.RawMessage
	CostData     json.RawMessage
}

// AnalyzeCommand untuk trigger analisis
type AnalyzeCommand struct {
	RecordID int64
	Industry string
	Language string
}

// advisoryPayload is the financial data embedded in the advisory prompt.
type advisoryPayload struct {
	Metrics     credit.Metrics `json:"metrics"`
	CreditScore int            `json:"creditScore"`
	Risks       []string       `json:"risks"`
}

// Upload stores the document and creates an uploaded record.
func (s *Service) Upload(ctx context.Context, cmd UploadCommand) (*domain.FinancialRecord, error) {
	name := filepath.Base(strings.TrimSpace(cmd.Filename))
	if name == "" || name == "." || name == "/" {
		return nil, domain.Invalid("file is required")
	}
	ext := strings.ToLower(filepath.Ext(name))
	defaultType, ok := AllowedExtensions[ext]
	if !ok {
		return nil, domain.Invalid("unsupported file type %q, expected one of .pdf .csv .xlsx .xls", ext)
	}
	if cmd.Size <= 0 {
		return nil, domain.Invalid("file is empty")
	}
	if limit := s.maxUploadBytes(); cmd.Size > limit {
		return nil, domain.Invalid("file exceeds %d bytes", limit)
	}

	lang, err := s.language(cmd.Language)
	if err != nil {
		return nil, err
	}
	if lang == "" {
		lang = s.fallbackLanguage("")
	}
	m, err := DecodeMetrics(cmd.Metrics)
	if err != nil {
		return nil, err
	}
	cashFlow, err := DecodeCashFlow(cmd.CashFlowData)
	if err != nil {
		return nil, err
	}
	cost, err := DecodeCostData(cmd.CostData)
	if err != nil {
		return nil, err
	}

	contentType := cmd.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = defaultType
	}
	now := s.Clock.Now()
	key := fmt.Sprintf("financials/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString(), ext)
	url, err := s.Documents.Put(ctx, key, cmd.Body, cmd.Size, contentType)
	if err != nil {
		return nil, err
	}

	rec := &domain.FinancialRecord{
		CreatedAt: now,
		Document: domain.Document{
			Filename:    name,
			StorageKey:  key,
			URL:         url,
			ContentType: contentType,
			SizeBytes:   cmd.Size,
		},
		Language:     lang,
		Status:       domain.StatusUploaded,
		Metrics:      m,
		CashFlowData: cashFlow,
		CostData:     cost,
	}
	if err := s.Repo.Create(ctx, rec); err != nil {
		// the request may already be cancelled; cleanup still runs
		if derr := s.Documents.Delete(context.WithoutCancel(ctx), key); derr != nil {
			zap.L().Error("orphaned document after failed insert",
				zap.String("storage_key", key),
				zap.Error(derr),
			)
		}
		return nil, err
	}

	zap.L().Info("financial record uploaded",
		zap.Int64("record_id", int64(rec.ID)),
		zap.String("storage_key", key),
		zap.Int64("size_bytes", cmd.Size),
	)
	return rec, nil
}

// UpdateMetrics replaces the metrics and series while the record is uploaded.
func (s *Service) UpdateMetrics(ctx context.Context, id int64, cmd MetricsCommand) (*domain.FinancialRecord, error) {
	if id <= 0 {
		return nil, domain.Invalid("id must be a positive integer")
	}
	m, err := DecodeMetrics(cmd.Metrics)
	if err != nil {
		return nil, err
	}
	cashFlow, err := DecodeCashFlow(cmd.CashFlowData)
	if err != nil {
		return nil, err
	}
	cost, err := DecodeCostData(cmd.CostData)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := s.Repo.Get(ctx, domain.RecordID(id))
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusUploaded {
		return nil, domain.Conflict("record %d is already analyzed, metrics can no longer change", id)
	}
	rec.Metrics = m
	if cashFlow != nil {
		rec.CashFlowData = cashFlow
	}
	if cost != nil {
		rec.CostData = cost
	}
	if err := s.Repo.UpdateMetrics(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Analyze runs the scoring and risk engines on an uploaded record, asks the
// advisor for a summary and persists the resulting report.
func (s *Service) Analyze(ctx context.Context, cmd AnalyzeCommand) (rep *domain.AnalysisReport, err error) {
	start := time.Now()
	defer func() { observe(start, err, rep) }()

	if cmd.RecordID <= 0 {
		return nil, domain.Invalid("recordId must be a positive integer")
	}
	ind, ok := s.Industries.Lookup(cmd.Industry)
	if !ok {
		return nil, domain.Invalid("industry %q is not recognised", cmd.Industry)
	}
	lang, err := s.language(cmd.Language)
	if err != nil {
		return nil, err
	}

	release, err := s.lock(ctx, cmd.RecordID)
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := s.Repo.Get(ctx, domain.RecordID(cmd.RecordID))
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusUploaded {
		return nil, domain.Conflict("record %d is already analyzed", rec.ID)
	}

	a, err := credit.Assess(rec.Metrics)
	if err != nil {
		return nil, err
	}
	if lang == "" {
		lang = s.fallbackLanguage(rec.Language)
	}

	rep = s.newReport(rec, a, ind, lang)
	summary, aerr := s.Advisor.GetAdvisory(ctx, advisory.Request{
		Financials: advisoryPayload{Metrics: rec.Metrics, CreditScore: a.CreditScore, Risks: a.Risks},
		Industry:   ind,
		Language:   lang,
	})
	if aerr != nil {
		zap.L().Warn("advisory failed",
			zap.Int64("record_id", cmd.RecordID),
			zap.String("policy", string(s.policy())),
			zap.Error(aerr),
		)
		if s.policy() == PolicyFail {
			return nil, aerr
		}
		degrade(rep, aerr)
	} else {
		complete(rep, summary)
	}

	if err := rec.MarkAnalyzed(rep); err != nil {
		return nil, err
	}
	if err := s.Repo.CompleteAnalysis(ctx, rec, rep); err != nil {
		return nil, err
	}

	zap.L().Info("financial record analyzed",
		zap.Int64("record_id", cmd.RecordID),
		zap.String("report_id", rep.ID),
		zap.Int("credit_score", rep.CreditScore),
		zap.Int("health_score", rep.HealthScore),
		zap.String("risk_level", string(rep.RiskLevel)),
		zap.String("advisory_status", string(rep.AdvisoryStatus)),
	)
	return rep, nil
}

// RetryAdvisory re-asks the advisor for a record whose latest report is
// degraded and appends a fresh report on success.
func (s *Service) RetryAdvisory(ctx context.Context, id int64) (rep *domain.AnalysisReport, err error) {
	if id <= 0 {
		return nil, domain.Invalid("id must be a positive integer")
	}
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	rec, err := s.Repo.Get(ctx, domain.RecordID(id))
	if err != nil {
		return nil, err
	}
	if rec.Status != domain.StatusAnalyzed {
		return nil, domain.Conflict("record %d has not been analyzed yet", id)
	}
	prev, err := s.Repo.LatestReport(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	if prev == nil || !prev.Degraded() {
		return nil, domain.Conflict("record %d already has a completed advisory", id)
	}

	a, err := credit.Assess(rec.Metrics)
	if err != nil {
		return nil, err
	}
	summary, err := s.Advisor.GetAdvisory(ctx, advisory.Request{
		Financials: advisoryPayload{Metrics: rec.Metrics, CreditScore: a.CreditScore, Risks: a.Risks},
		Industry:   prev.Industry,
		Language:   prev.Language,
	})
	if err != nil {
		metrics.AnalysesTotal.WithLabelValues("retry_failed").Inc()
		return nil, err
	}

	rep = s.newReport(rec, a, prev.Industry, prev.Language)
	complete(rep, summary)
	if err := rec.Replace(rep); err != nil {
		return nil, err
	}
	if err := s.Repo.AppendReport(ctx, rec, rep, prev.ID); err != nil {
		return nil, err
	}
	metrics.AnalysesTotal.WithLabelValues("retried").Inc()
	zap.L().Info("advisory retried",
		zap.Int64("record_id", id),
		zap.String("report_id", rep.ID),
		zap.String("previous_report_id", prev.ID),
	)
	return rep, nil
}

// Get ambil 1 record by id, beserta report terakhir
func (s *Service) Get(ctx context.Context, id int64) (*domain.FinancialRecord, error) {
	if id <= 0 {
		return nil, domain.Invalid("id must be a positive integer")
	}
	rec, err := s.Repo.Get(ctx, domain.RecordID(id))
	if err != nil {
		return nil, err
	}
	if rec.LatestReportID != "" {
		if rec.Report, err = s.Repo.LatestReport(ctx, rec.ID); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// List ambil N record terakhir
func (s *Service) List(ctx context.Context, limit int) ([]*domain.FinancialRecord, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.Repo.List(ctx, limit)
}

// Reports returns the report history of a record, newest first.
func (s *Service) Reports(ctx context.Context, id int64) ([]*domain.AnalysisReport, error) {
	if id <= 0 {
		return nil, domain.Invalid("id must be a positive integer")
	}
	if _, err := s.Repo.Get(ctx, domain.RecordID(id)); err != nil {
		return nil, err
	}
	return s.Repo.Reports(ctx, domain.RecordID(id))
}

// helpers

func (s *Service) lock(ctx context.Context, id int64) (func(), error) {
	release, err := s.Locker.TryLock(ctx, fmt.Sprintf("record:%d", id))
	if errors.Is(err, domain.ErrLocked) {
		return nil, domain.Conflict("record %d is being processed by another request", id)
	}
	if err != nil {
		return nil, err
	}
	return release, nil
}

func (s *Service) newReport(rec *domain.FinancialRecord, a credit.Assessment, ind, lang string) *domain.AnalysisReport {
	return &domain.AnalysisReport{
		ID:              uuid.NewString(),
		RecordID:        rec.ID,
		CreditScore:     a.CreditScore,
		HealthScore:     a.HealthScore,
		RiskLevel:       a.RiskLevel,
		Risks:           a.Risks,
		Industry:        ind,
		Language:        lang,
		Recommendations: []string{},
		CreatedAt:       s.Clock.Now(),
	}
}

func complete(rep *domain.AnalysisReport, summary string) {
	rep.AdvisoryStatus = domain.AdvisoryCompleted
	rep.AdvisorySummary = &summary
	rep.AdvisoryError = ""
	rep.Recommendations = advisory.ExtractRecommendations(summary)
}

func degrade(rep *domain.AnalysisReport, err error) {
	rep.AdvisoryStatus = domain.AdvisoryFailed
	rep.AdvisorySummary = nil
	rep.AdvisoryError = UpstreamMessage(err)
}

// UpstreamMessage is the client-facing text for an advisory failure.
func UpstreamMessage(err error) string {
	switch {
	case errors.Is(err, advisory.ErrQuotaExceeded):
		return advisory.ErrQuotaExceeded.Error()
	case errors.Is(err, advisory.ErrUpstreamUnavailable):
		return advisory.ErrUpstreamUnavailable.Error()
	case errors.Is(err, advisory.ErrUpstreamMalformed):
		return advisory.ErrUpstreamMalformed.Error()
	case errors.Is(err, advisory.ErrUpstreamError):
		return advisory.ErrUpstreamError.Error()
	default:
		return "advisory failed"
	}
}

func (s *Service) language(in string) (string, error) {
	if strings.TrimSpace(in) == "" {
		return "", nil
	}
	lang, ok := advisory.NormalizeLanguage(in)
	if !ok {
		return "", domain.Invalid("language %q is not supported, expected one of %s", in, strings.Join(advisory.Languages, ", "))
	}
	return lang, nil
}

func (s *Service) fallbackLanguage(recordLanguage string) string {
	for _, l := range []string{recordLanguage, s.DefaultLanguage} {
		if l != "" {
			return l
		}
	}
	return advisory.DefaultLanguage
}

func (s *Service) policy() Policy {
	if s.Policy == PolicyFail {
		return PolicyFail
	}
	return PolicyPersist
}

func (s *Service) maxUploadBytes() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return DefaultMaxUploadBytes
}

func observe(start time.Time, err error, rep *domain.AnalysisReport) {
	outcome := "error"
	switch {
	case err == nil && rep != nil && rep.Degraded():
		outcome = "degraded"
	case err == nil:
		outcome = "completed"
	case errors.Is(err, domain.ErrValidation), errors.Is(err, credit.ErrMissingField):
		outcome = "invalid"
	case errors.Is(err, domain.ErrInvalidState):
		outcome = "conflict"
	case errors.Is(err, domain.ErrRecordNotFound):
		outcome = "not_found"
	case advisory.IsUpstream(err):
		outcome = "upstream_failed"
	}
	metrics.AnalysesTotal.WithLabelValues(outcome).Inc()
	metrics.AnalysisDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	if err == nil && rep != nil {
		metrics.CreditScores.Observe(float64(rep.CreditScore))
	}
}
