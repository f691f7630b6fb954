package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phambaophuc/pdf-watermark/internal/config"
	"github.com/phambaophuc/pdf-watermark/internal/http/handlers"
	"github.com/phambaophuc/pdf-watermark/internal/http/routes"
	"github.com/phambaophuc/pdf-watermark/internal/services/processor"
	"github.com/phambaophuc/pdf-watermark/internal/services/queue"
	"github.com/phambaophuc/pdf-watermark/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	// Initialize services
	pdfProcessor := processor.NewPDFProcessor()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	// The synchronous endpoints keep working without storage or queue, so
	// failures here only disable the job endpoints.
	var (
		jobStore handlers.JobStore
		jobQueue handlers.JobQueue
	)

	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Warn("Failed to initialize storage service", zap.Error(err))
	} else {
		defer storageService.Close()
		jobStore = storageService

		queueService, err := queue.NewQueueService(
			cfg.RabbitMQ.URL,
			cfg.RabbitMQ.Queue,
			cfg.Storage.MaxFileSize,
			pdfProcessor,
			storageService,
			logger,
		)
		if err != nil {
			logger.Warn("Failed to initialize queue service", zap.Error(err))
		} else {
			defer queueService.Close()
			jobQueue = queueService

			if err := queueService.StartWorkers(workerCtx, cfg.Watermark.Workers); err != nil {
				logger.Error("Failed to start workers", zap.Error(err))
			}
		}
	}

	// Initialize handlers
	pdfHandler := handlers.NewPDFHandler(pdfProcessor, jobStore, jobQueue, logger, cfg)

	router := routes.NewRouter(pdfHandler, logger, cfg.Storage.MaxFileSize)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("storage_backend", cfg.Storage.Backend),
			zap.Bool("jobs_enabled", jobStore != nil && jobQueue != nil),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
