package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/pipeline-graph/engine/internal/api"
	"github.com/pipeline-graph/engine/internal/api/handlers"
	"github.com/pipeline-graph/engine/internal/repository"
	"github.com/pipeline-graph/engine/internal/services"
	"github.com/pipeline-graph/engine/pkg/config"
	"github.com/pipeline-graph/engine/pkg/database"
	"github.com/pipeline-graph/engine/pkg/logger"
	"github.com/pipeline-graph/engine/pkg/tracing"
)

const serviceName = "pipeline-graph-engine"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting pipeline graph engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
		zap.String("version", version),
	)

	ctx := context.Background()

	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
		SampleRate:     cfg.OTelSampleRate,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Connect to database
	db, err := database.Open(ctx, cfg.DatabaseURL, database.Options{
		Logger:  log,
		Verbose: cfg.LogLevel == "debug",
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully", zap.String("dialect", db.Dialector.Name()))

	if err := repository.Migrate(ctx, db); err != nil {
		log.Fatal("Failed to prepare schema", zap.Error(err))
	}

	// Initialize repositories and services
	graphRepo := repository.NewGraphRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	graphSvc := services.NewGraphService(graphRepo, positionRepo, services.Options{
		StoreTimeout: cfg.StoreTimeout,
		Comma:        cfg.Delimiter(),
	})

	// Create router with dependencies
	router := api.NewRouter(api.Dependencies{
		GraphHandler:   handlers.NewGraphHandler(graphSvc, cfg.MaxUploadBytes),
		HealthHandler:  handlers.NewHealthHandler(func(ctx context.Context) error { return database.Ping(ctx, db) }),
		ServiceName:    serviceName,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer shutdown error", zap.Error(err))
	}
	if err := database.Close(db); err != nil {
		log.Error("database close error", zap.Error(err))
	}
}
