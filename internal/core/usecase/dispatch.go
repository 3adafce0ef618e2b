package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/ports"
)

// DispatchOCRUseCase hands a document to the external OCR provider. It never
// lets a provider failure escape as anything but persisted document state:
// the returned error exists for worker logs and metrics only.
type DispatchOCRUseCase struct {
	repo        ports.DocumentRepository
	provider    ports.OCRProvider
	logger      *slog.Logger
	callTimeout time.Duration
}

func NewDispatchOCRUseCase(
	repo ports.DocumentRepository,
	provider ports.OCRProvider,
	logger *slog.Logger,
	callTimeout time.Duration,
) *DispatchOCRUseCase {
	if callTimeout <= 0 {
		callTimeout = 30 * time.Second
	}
	return &DispatchOCRUseCase{
		repo:        repo,
		provider:    provider,
		logger:      logger,
		callTimeout: callTimeout,
	}
}

func (uc *DispatchOCRUseCase) Dispatch(ctx context.Context, documentID string) error {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("fetch document by id: %w", err)
	}

	// Advisory write: dispatch proceeds even when it fails.
	now := time.Now().UTC()
	if _, err := uc.repo.SetStatus(ctx, documentID, domain.StatusProcessing, domain.OCRMetadata{
		ProcessingStartedAt: &now,
	}); err != nil {
		uc.logger.Warn("mark_processing_failed", "document_id", documentID, "error", err)
	}

	token, err := uc.login(ctx)
	if err != nil {
		return uc.recordFailure(ctx, documentID, fmt.Errorf("ocr login: %w", err))
	}

	if err := uc.submit(ctx, token, documentID, doc.SourceLocation); err != nil {
		return uc.recordFailure(ctx, documentID, fmt.Errorf("ocr submit: %w", err))
	}

	// No status write on success: the document stays processing until page
	// results (or the timeout sweep) complete it.
	uc.logger.Info("ocr_job_submitted", "document_id", documentID)
	return nil
}

func (uc *DispatchOCRUseCase) login(ctx context.Context) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	defer cancel()
	return uc.provider.Login(callCtx)
}

func (uc *DispatchOCRUseCase) submit(ctx context.Context, token, jobID, sourceURL string) error {
	callCtx, cancel := context.WithTimeout(ctx, uc.callTimeout)
	defer cancel()
	return uc.provider.Submit(callCtx, token, jobID, sourceURL)
}

func (uc *DispatchOCRUseCase) recordFailure(ctx context.Context, documentID string, cause error) error {
	now := time.Now().UTC()
	meta := domain.OCRMetadata{
		FailedAt: &now,
		Error:    cause.Error(),
	}
	if _, err := uc.repo.SetStatus(ctx, documentID, domain.StatusFailed, meta); err != nil {
		return fmt.Errorf("%w; mark failed status: %v", cause, err)
	}
	return cause
}
