package financials

import (
	"context"
	"io"
	"sort"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/bryanwahyu/finadvisor/internal/domain/advisory"
	domain "github.com/bryanwahyu/finadvisor/internal/domain/financials"
)

// memRepo is an in-memory Repository with the same compare-and-swap rules
// as the SQL one.
type memRepo struct {
	mu      sync.Mutex
	nextID  domain.RecordID
	records map[domain.RecordID]domain.FinancialRecord
	reports map[domain.RecordID][]domain.AnalysisReport
}

func newMemRepo() *memRepo {
	return &memRepo{
		records: map[domain.RecordID]domain.FinancialRecord{},
		reports: map[domain.RecordID][]domain.AnalysisReport{},
	}
}

func (m *memRepo) Create(_ context.Context, r *domain.FinancialRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	r.ID = m.nextID
	m.records[r.ID] = *r
	return nil
}

func (m *memRepo) Get(_ context.Context, id domain.RecordID) (*domain.FinancialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	r.Report = nil
	return &r, nil
}

func (m *memRepo) List(_ context.Context, limit int) ([]*domain.FinancialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.FinancialRecord, 0, len(m.records))
	for _, r := range m.records {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRepo) UpdateMetrics(_ context.Context, r *domain.FinancialRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[r.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if cur.Status != domain.StatusUploaded {
		return domain.ErrInvalidState
	}
	cur.Metrics, cur.CashFlowData, cur.CostData = r.Metrics, r.CashFlowData, r.CostData
	m.records[r.ID] = cur
	return nil
}

func (m *memRepo) CompleteAnalysis(_ context.Context, r *domain.FinancialRecord, rep *domain.AnalysisReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[r.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if cur.Status != domain.StatusUploaded {
		return domain.ErrInvalidState
	}
	m.store(r, rep)
	return nil
}

func (m *memRepo) AppendReport(_ context.Context, r *domain.FinancialRecord, rep *domain.AnalysisReport, previousID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.records[r.ID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	if cur.Status != domain.StatusAnalyzed || cur.LatestReportID != previousID {
		return domain.ErrInvalidState
	}
	m.store(r, rep)
	return nil
}

func (m *memRepo) store(r *domain.FinancialRecord, rep *domain.AnalysisReport) {
	saved := *r
	saved.Report = nil
	m.records[r.ID] = saved
	m.reports[r.ID] = append(m.reports[r.ID], *rep)
}

func (m *memRepo) LatestReport(_ context.Context, id domain.RecordID) (*domain.AnalysisReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := m.records[id].LatestReportID
	for _, rep := range m.reports[id] {
		if rep.ID == latest {
			rep := rep
			return &rep, nil
		}
	}
	return nil, nil
}

func (m *memRepo) Reports(_ context.Context, id domain.RecordID) ([]*domain.AnalysisReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.reports[id]
	out := make([]*domain.AnalysisReport, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		rep := list[i]
		out = append(out, &rep)
	}
	return out, nil
}

type memDocuments struct {
	mu      sync.Mutex
	keys    []string
	deleted []string
}

func (d *memDocuments) Delete(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted = append(d.deleted, key)
	return nil
}

// failingCreateRepo rejects every insert.
type failingCreateRepo struct {
	*memRepo
	err error
}

func (r *failingCreateRepo) Create(context.Context, *domain.FinancialRecord) error {
	return r.err
}

func (d *memDocuments) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keys = append(d.keys, key)
	return "/files/" + key, nil
}

type mockAdvisor struct {
	mock.Mock
}

func (m *mockAdvisor) GetAdvisory(ctx context.Context, req advisory.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}
