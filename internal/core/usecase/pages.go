package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageAggregatorUseCase merges inbound OCR results into document state.
// Page-scoped results become idempotently upserted page-children; results
// without a page number complete the original directly.
type PageAggregatorUseCase struct {
	repo    ports.DocumentRepository
	indexer ports.PageIndexer
	logger  *slog.Logger
}

func NewPageAggregatorUseCase(repo ports.DocumentRepository, indexer ports.PageIndexer, logger *slog.Logger) *PageAggregatorUseCase {
	return &PageAggregatorUseCase{repo: repo, indexer: indexer, logger: logger}
}

func (uc *PageAggregatorUseCase) SubmitResult(ctx context.Context, res domain.OCRResult) (*domain.Document, error) {
	if strings.TrimSpace(res.DocumentID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit result", fmt.Errorf("document id is required"))
	}
	if res.Page != nil && *res.Page < 1 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit result", fmt.Errorf("page number must be >= 1, got %d", *res.Page))
	}

	original, err := uc.repo.GetByID(ctx, res.DocumentID)
	if err != nil {
		return nil, fmt.Errorf("fetch original document: %w", err)
	}
	if original.IsPageDocument {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit result", fmt.Errorf("document %s is a page record", res.DocumentID))
	}

	if res.Page == nil {
		return uc.saveFullResult(ctx, original, res)
	}
	return uc.savePageResult(ctx, original, res)
}

func (uc *PageAggregatorUseCase) saveFullResult(ctx context.Context, original *domain.Document, res domain.OCRResult) (*domain.Document, error) {
	now := time.Now().UTC()
	doc, err := uc.repo.SaveFullResult(ctx, original.ID, res.Text, domain.OCRMetadata{
		ProcessedAt: &now,
		TextLength:  len(res.Text),
		ProcessedBy: res.ProcessedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("save full result: %w", err)
	}
	return doc, nil
}

func (uc *PageAggregatorUseCase) savePageResult(ctx context.Context, original *domain.Document, res domain.OCRResult) (*domain.Document, error) {
	now := time.Now().UTC()
	page := &domain.Document{
		ID:                 uuid.NewString(),
		Filename:           original.Filename,
		Extension:          original.Extension,
		SourceLocation:     original.SourceLocation,
		Title:              original.Title,
		Owner:              original.Owner,
		OwnerUserID:        original.OwnerUserID,
		Username:           original.Username,
		AccessLevel:        original.AccessLevel,
		OCRStatus:          domain.StatusCompleted,
		RawText:            res.Text,
		IsPageDocument:     true,
		OriginalDocumentID: original.ID,
		PageNumber:         *res.Page,
		OCRMetadata: domain.OCRMetadata{
			ProcessedAt: &now,
			TextLength:  len(res.Text),
			ProcessedBy: res.ProcessedBy,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	stored, err := uc.repo.UpsertPage(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("upsert page result: %w", err)
	}

	// The parent goes to processing on the first page arrival; once terminal
	// it is left alone.
	if !original.Terminal() {
		meta := domain.OCRMetadata{}
		if original.OCRMetadata.ProcessingStartedAt == nil {
			meta.ProcessingStartedAt = &now
		}
		if _, err := uc.repo.SetStatus(ctx, original.ID, domain.StatusProcessing, meta); err != nil {
			uc.logger.Warn("mark_original_processing_failed", "document_id", original.ID, "error", err)
		}
	}

	uc.forwardToIndexer(ctx, original, stored, res.Text)
	return stored, nil
}

// forwardToIndexer is best-effort: a failed forward never fails the stored
// page result.
func (uc *PageAggregatorUseCase) forwardToIndexer(ctx context.Context, original, page *domain.Document, text string) {
	if uc.indexer == nil {
		return
	}
	err := uc.indexer.IndexPage(ctx, domain.IndexedPage{
		RawText:       text,
		DocumentID:    original.ID,
		PageID:        page.ID,
		UserID:        original.OwnerUserID,
		Title:         original.Title,
		ApprovedDate:  original.ApprovedAt,
		EffectiveDate: original.EffectiveAt,
		Owner:         original.Owner,
		Username:      original.Username,
		AccessLevel:   original.AccessLevel,
	})
	if err != nil {
		uc.logger.Warn("index_forward_failed", "document_id", original.ID, "page_id", page.ID, "error", err)
	}
}

func (uc *PageAggregatorUseCase) ReportError(ctx context.Context, failure domain.OCRFailure) (*domain.Document, error) {
	if strings.TrimSpace(failure.DocumentID) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "report error", fmt.Errorf("document id is required"))
	}
	now := time.Now().UTC()
	doc, err := uc.repo.SetStatus(ctx, failure.DocumentID, domain.StatusFailed, domain.OCRMetadata{
		FailedAt:   &now,
		Error:      failure.Message,
		FailedPage: failure.Page,
	})
	if err != nil {
		return nil, fmt.Errorf("record ocr failure: %w", err)
	}
	return doc, nil
}

func (uc *PageAggregatorUseCase) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *PageAggregatorUseCase) ListPages(ctx context.Context, originalID string) ([]domain.Document, error) {
	if _, err := uc.repo.GetByID(ctx, originalID); err != nil {
		return nil, fmt.Errorf("fetch original document: %w", err)
	}
	pages, err := uc.repo.ListPages(ctx, originalID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return pages, nil
}

func (uc *PageAggregatorUseCase) ListOriginals(ctx context.Context, page, perPage int) ([]domain.DocumentSummary, int, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPageSize
	}
	if perPage > maxPageSize {
		perPage = maxPageSize
	}
	summaries, total, err := uc.repo.ListOriginals(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list originals: %w", err)
	}
	return summaries, total, nil
}
