package ports

import (
	"context"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
)

// DocumentRepository persists document and page-child records. All mutation is
// expressed as atomic update/upsert statements; there is no in-process locking.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)

	// SetStatus transitions ocr_status and merges the metadata patch into
	// ocr_metadata, returning the updated record.
	SetStatus(ctx context.Context, id string, status domain.OCRStatus, meta domain.OCRMetadata) (*domain.Document, error)

	// SaveFullResult stores a whole-document extraction result and marks the
	// record completed in one statement.
	SaveFullResult(ctx context.Context, id, text string, meta domain.OCRMetadata) (*domain.Document, error)

	// UpsertPage inserts or overwrites the page-child keyed by
	// (original_document_id, page_number). Duplicate submissions overwrite.
	UpsertPage(ctx context.Context, page *domain.Document) (*domain.Document, error)

	ListPages(ctx context.Context, originalID string) ([]domain.Document, error)
	DeletePages(ctx context.Context, originalID string) error

	// ClearResult returns a document to pending with raw_text and ocr_metadata
	// wiped. Used by reset after the page-children are deleted.
	ClearResult(ctx context.Context, id string) (*domain.Document, error)

	ListByStatus(ctx context.Context, status domain.OCRStatus) ([]domain.Document, error)
	ListOriginals(ctx context.Context, limit, offset int) ([]domain.DocumentSummary, int, error)
}

// OCRProvider is the outbound two-step contract of the external text
// extraction service.
type OCRProvider interface {
	Login(ctx context.Context) (string, error)
	Submit(ctx context.Context, token, jobID, sourceURL string) error
}

// MessageQueue decouples document creation from the OCR submission.
type MessageQueue interface {
	PublishDocumentCreated(ctx context.Context, documentID string) error
	SubscribeDocumentCreated(ctx context.Context, handler func(context.Context, string) error) error
}

// PageIndexer forwards extracted page text downstream. Callers treat failures
// as best-effort: logged, never escalated.
type PageIndexer interface {
	IndexPage(ctx context.Context, page domain.IndexedPage) error
}
