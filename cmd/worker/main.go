package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/bootstrap"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/config"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/observability/logging"
	"github.com/alikalatearabi/assistant-aggregator-backend-sub000/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := logging.NewJSONLogger("worker", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	ocrMetrics := metrics.NewOCRMetrics("worker")
	metricsServer := &http.Server{
		Addr:    ":" + cfg.WorkerMetricsPort,
		Handler: ocrMetrics.Handler(),
	}
	go func() {
		logger.Info("metrics_listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	scheduler := cron.New()
	_, err = scheduler.AddFunc(fmt.Sprintf("@every %ds", cfg.SweepIntervalSeconds), func() {
		sweepCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.SweepIntervalSeconds)*time.Second)
		defer cancel()

		start := time.Now()
		report, err := app.ReconcileUC.Sweep(sweepCtx)
		if err != nil {
			logger.Error("sweep_failed", "error", err)
			return
		}
		ocrMetrics.ObserveSweep(time.Since(start), report.Promoted)
		logger.Info("sweep_finished", "candidates", report.Candidates, "promoted", report.Promoted)
	})
	if err != nil {
		log.Fatalf("schedule sweep error: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeDocumentCreated(ctx, func(handlerCtx context.Context, documentID string) error {
		dispatchCtx, cancel := context.WithTimeout(handlerCtx, 5*time.Minute)
		defer cancel()

		ocrMetrics.StartDispatch()
		start := time.Now()
		dispatchErr := app.DispatchUC.Dispatch(dispatchCtx, documentID)
		ocrMetrics.FinishDispatch("worker", time.Since(start), dispatchErr)
		return dispatchErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}
