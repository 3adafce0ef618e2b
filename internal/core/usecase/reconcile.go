package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/domain"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/ports"
)

// TimeoutReconcileUseCase is the self-healing sweep: originals stuck in
// processing whose page stream has gone quiet get promoted to completed,
// provided at least one page actually succeeded. Originals with zero pages
// (still dispatching) or zero completed pages are left for the next pass.
type TimeoutReconcileUseCase struct {
	repo       ports.DocumentRepository
	staleAfter time.Duration
	logger     *slog.Logger
}

func NewTimeoutReconcileUseCase(repo ports.DocumentRepository, staleAfter time.Duration, logger *slog.Logger) *TimeoutReconcileUseCase {
	if staleAfter <= 0 {
		staleAfter = 5 * time.Minute
	}
	return &TimeoutReconcileUseCase{repo: repo, staleAfter: staleAfter, logger: logger}
}

func (uc *TimeoutReconcileUseCase) Sweep(ctx context.Context) (domain.SweepReport, error) {
	candidates, err := uc.repo.ListByStatus(ctx, domain.StatusProcessing)
	if err != nil {
		return domain.SweepReport{}, fmt.Errorf("list processing documents: %w", err)
	}

	report := domain.SweepReport{Candidates: len(candidates)}
	for _, candidate := range candidates {
		promoted, err := uc.reconcile(ctx, &candidate)
		if err != nil {
			// One stuck candidate must not abort the sweep for the rest.
			uc.logger.Warn("sweep_candidate_failed", "document_id", candidate.ID, "error", err)
			continue
		}
		if promoted {
			report.Promoted++
		}
	}
	return report, nil
}

func (uc *TimeoutReconcileUseCase) reconcile(ctx context.Context, candidate *domain.Document) (bool, error) {
	pages, err := uc.repo.ListPages(ctx, candidate.ID)
	if err != nil {
		return false, fmt.Errorf("list pages: %w", err)
	}
	if len(pages) == 0 {
		return false, nil
	}

	var newest time.Time
	anyCompleted := false
	for _, page := range pages {
		if page.UpdatedAt.After(newest) {
			newest = page.UpdatedAt
		}
		if page.OCRStatus == domain.StatusCompleted {
			anyCompleted = true
		}
	}
	if !anyCompleted || time.Since(newest) < uc.staleAfter {
		return false, nil
	}

	now := time.Now().UTC()
	if _, err := uc.repo.SetStatus(ctx, candidate.ID, domain.StatusCompleted, domain.OCRMetadata{
		ProcessedAt: &now,
		ProcessedBy: "reconciler",
	}); err != nil {
		return false, fmt.Errorf("promote stale document: %w", err)
	}

	uc.logger.Info("stale_document_promoted",
		"document_id", candidate.ID,
		"pages", len(pages),
		"last_page_update", newest,
	)
	return true, nil
}
