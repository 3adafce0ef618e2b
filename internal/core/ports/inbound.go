package ports

import (
	"context"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
)

// DocumentIngestor is the inbound contract for document creation.
type DocumentIngestor interface {
	Create(ctx context.Context, input domain.NewDocumentInput) (*domain.Document, error)
}

// OCRDispatcher submits a document to the external OCR provider. The returned
// error is diagnostic only: by the time Dispatch returns, every failure has
// already been absorbed into the document's own state.
type OCRDispatcher interface {
	Dispatch(ctx context.Context, documentID string) error
}

// ResultRecorder ingests extraction results and provider error reports.
type ResultRecorder interface {
	SubmitResult(ctx context.Context, res domain.OCRResult) (*domain.Document, error)
	ReportError(ctx context.Context, failure domain.OCRFailure) (*domain.Document, error)
}

// StatusService exposes the explicit state transitions and the status query
// surface.
type StatusService interface {
	MarkProcessing(ctx context.Context, id string) (*domain.Document, error)
	Reset(ctx context.Context, id string) (*domain.Document, error)
	ListByStatus(ctx context.Context, rawStatus string) ([]domain.Document, error)
}

// DocumentReader is the read model over originals and page-children.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	ListPages(ctx context.Context, originalID string) ([]domain.Document, error)
	ListOriginals(ctx context.Context, page, perPage int) ([]domain.DocumentSummary, int, error)
}

// TimeoutReconciler promotes stale processing originals with completed pages.
type TimeoutReconciler interface {
	Sweep(ctx context.Context) (domain.SweepReport, error)
}
