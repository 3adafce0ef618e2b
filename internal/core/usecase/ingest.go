package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/ports"
)

// IngestDocumentUseCase creates the document record and schedules the OCR
// submission. The OCR work itself runs in the worker; creation returns as
// soon as the dispatch event is published.
type IngestDocumentUseCase struct {
	repo  ports.DocumentRepository
	queue ports.MessageQueue
}

func NewIngestDocumentUseCase(repo ports.DocumentRepository, queue ports.MessageQueue) *IngestDocumentUseCase {
	return &IngestDocumentUseCase{repo: repo, queue: queue}
}

func (uc *IngestDocumentUseCase) Create(ctx context.Context, input domain.NewDocumentInput) (*domain.Document, error) {
	if strings.TrimSpace(input.Filename) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create document", fmt.Errorf("filename is required"))
	}
	if strings.TrimSpace(input.SourceLocation) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "create document", fmt.Errorf("source_location is required"))
	}

	now := time.Now().UTC()
	doc := &domain.Document{
		ID:             uuid.NewString(),
		Filename:       input.Filename,
		Extension:      input.Extension,
		SourceLocation: input.SourceLocation,
		Title:          input.Title,
		Owner:          input.Owner,
		OwnerUserID:    input.OwnerUserID,
		Username:       input.Username,
		AccessLevel:    input.AccessLevel,
		ApprovedAt:     input.ApprovedAt,
		EffectiveAt:    input.EffectiveAt,
		OCRStatus:      domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document record: %w", err)
	}

	if err := uc.queue.PublishDocumentCreated(ctx, doc.ID); err != nil {
		return nil, fmt.Errorf("publish dispatch event: %w", err)
	}

	return doc, nil
}
