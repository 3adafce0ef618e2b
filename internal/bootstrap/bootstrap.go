package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/config"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/ports"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/core/usecase"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/infrastructure/indexing"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/infrastructure/ocr"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/infrastructure/queue/nats"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/infrastructure/repository/postgres"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	IngestUC    ports.DocumentIngestor
	DispatchUC  ports.OCRDispatcher
	ResultsUC   *usecase.PageAggregatorUseCase
	StatusUC    ports.StatusService
	ReconcileUC ports.TimeoutReconciler

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	provider := ocr.New(cfg.OCRBaseURL, cfg.OCRUsername, cfg.OCRPassword, time.Duration(cfg.OCRTimeoutSeconds)*time.Second)

	var indexer ports.PageIndexer
	if cfg.IndexerURL != "" {
		indexer = indexing.NewForwarder(cfg.IndexerURL, 10*time.Second)
	}

	ingestUC := usecase.NewIngestDocumentUseCase(repo, queue)
	dispatchUC := usecase.NewDispatchOCRUseCase(repo, provider, logger, time.Duration(cfg.OCRTimeoutSeconds)*time.Second)
	resultsUC := usecase.NewPageAggregatorUseCase(repo, indexer, logger)
	statusUC := usecase.NewStatusUseCase(repo)
	reconcileUC := usecase.NewTimeoutReconcileUseCase(repo, time.Duration(cfg.StaleThresholdSeconds)*time.Second, logger)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:    ingestUC,
		DispatchUC:  dispatchUC,
		ResultsUC:   resultsUC,
		StatusUC:    statusUC,
		ReconcileUC: reconcileUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
