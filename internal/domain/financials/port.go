package financials

import (
	"context"
	"io"
)

// Repository port (interface untuk persistence)
type Repository interface {
	Create(ctx context.Context, r *FinancialRecord) error
	Get(ctx context.Context, id RecordID) (*FinancialRecord, error)
	List(ctx context.Context, limit int) ([]*FinancialRecord, error)
	UpdateMetrics(ctx context.Context, r *FinancialRecord) error

	// CompleteAnalysis stores rep and moves the record from uploaded to
	// analyzed in one transaction. It fails with ErrInvalidState when the
	// record is no longer uploaded.
	CompleteAnalysis(ctx context.Context, r *FinancialRecord, rep *AnalysisReport) error
	// AppendReport stores a newer report for an analyzed record whose latest
	// report is still previousID.
	AppendReport(ctx context.Context, r *FinancialRecord, rep *AnalysisReport, previousID string) error
	LatestReport(ctx context.Context, id RecordID) (*AnalysisReport, error)
	Reports(ctx context.Context, id RecordID) ([]*AnalysisReport, error)
}

// DocumentStore port (interface untuk penyimpanan dokumen)
type DocumentStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	// Delete removes key; a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Locker gives per-key exclusivity across concurrent requests.
type Locker interface {
	// TryLock returns ErrLocked instead of waiting when key is held.
	TryLock(ctx context.Context, key string) (release func(), err error)
}
