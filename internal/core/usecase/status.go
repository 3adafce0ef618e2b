package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/ports"
)

// StatusUseCase owns the ocr_status vocabulary: explicit transitions with
// their metadata stamps, the reset path, and the status query surface.
type StatusUseCase struct {
	repo ports.DocumentRepository
}

func NewStatusUseCase(repo ports.DocumentRepository) *StatusUseCase {
	return &StatusUseCase{repo: repo}
}

// guardOriginal rejects transitions aimed at page-children; their lifecycle
// belongs to the aggregator.
func (uc *StatusUseCase) guardOriginal(ctx context.Context, op, id string) error {
	doc, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if doc.IsPageDocument {
		return domain.WrapError(domain.ErrInvalidInput, op, fmt.Errorf("document %s is a page record", id))
	}
	return nil
}

func (uc *StatusUseCase) MarkProcessing(ctx context.Context, id string) (*domain.Document, error) {
	if err := uc.guardOriginal(ctx, "mark processing", id); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	doc, err := uc.repo.SetStatus(ctx, id, domain.StatusProcessing, domain.OCRMetadata{
		ProcessingStartedAt: &now,
	})
	if err != nil {
		return nil, fmt.Errorf("mark processing: %w", err)
	}
	return doc, nil
}

func (uc *StatusUseCase) MarkCompleted(ctx context.Context, id, processedBy string) (*domain.Document, error) {
	now := time.Now().UTC()
	doc, err := uc.repo.SetStatus(ctx, id, domain.StatusCompleted, domain.OCRMetadata{
		ProcessedAt: &now,
		ProcessedBy: processedBy,
	})
	if err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	return doc, nil
}

func (uc *StatusUseCase) MarkFailed(ctx context.Context, id string, page *int, message string) (*domain.Document, error) {
	now := time.Now().UTC()
	doc, err := uc.repo.SetStatus(ctx, id, domain.StatusFailed, domain.OCRMetadata{
		FailedAt:   &now,
		Error:      message,
		FailedPage: page,
	})
	if err != nil {
		return nil, fmt.Errorf("mark failed: %w", err)
	}
	return doc, nil
}

// Reset deletes page-children first, then clears the original. A crash
// between the two leaves a partial state the next reset picks up again.
func (uc *StatusUseCase) Reset(ctx context.Context, id string) (*domain.Document, error) {
	if err := uc.guardOriginal(ctx, "reset document", id); err != nil {
		return nil, err
	}
	if err := uc.repo.DeletePages(ctx, id); err != nil {
		return nil, fmt.Errorf("reset document: %w", err)
	}
	doc, err := uc.repo.ClearResult(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("reset document: %w", err)
	}
	return doc, nil
}

func (uc *StatusUseCase) ListByStatus(ctx context.Context, rawStatus string) ([]domain.Document, error) {
	status, err := domain.ParseOCRStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	docs, err := uc.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list by status: %w", err)
	}
	return docs, nil
}
