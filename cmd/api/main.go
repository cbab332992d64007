package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/timmy/analystai/internal/api"
	"github.com/timmy/analystai/internal/auth"
	"github.com/timmy/analystai/internal/config"
	"github.com/timmy/analystai/internal/logger"
	"github.com/timmy/analystai/internal/metrics"
	"github.com/timmy/analystai/internal/repository"
	"github.com/timmy/analystai/internal/service"
)

func main() {
	// Initialize logger first (from LOG_* environment)
	appLogger := logger.NewDefault()
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// Load configuration
	// Support CONFIG_PATH environment variable for production deployments
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
	}

	// Initialize the extraction pipeline
	rootCtx := appLogger.WithContext(context.Background())
	registry := repository.NewTaskRegistry()
	executor := service.NewExecutor(rootCtx, cfg.Extraction.MaxConcurrent, cfg.Extraction.TaskTimeout)
	extractionService := service.NewExtractionService(
		registry,
		service.NewMockExtractor(cfg.Extraction.Delay),
		executor,
		m,
		appLogger,
	)

	// Setup router
	router := api.SetupRouter(api.RouterDeps{
		ExtractionService: extractionService,
		TokenValidator:    auth.NoopTokenValidator{},
		Metrics:           m,
		Logger:            appLogger,
	}, cfg.Server.Mode)

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		appLogger.WithFields(logger.Fields{
			"port":           cfg.Server.Port,
			"mode":           cfg.Server.Mode,
			"delay":          cfg.Extraction.Delay.String(),
			"max_concurrent": cfg.Extraction.MaxConcurrent,
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown: %v", err)
	}

	// In-flight extractions are cancelled and recorded as failed
	if err := extractionService.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Extractions still running at exit: %v", err)
	}

	appLogger.Info("Server exited")
}
