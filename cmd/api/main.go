package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/logging"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/metrics"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/middleware"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/pkg/tracing"

	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/api/handlers"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/bootstrap"
	"github.com/GIUSEPPESAN21/Mejoras-Rapitienda-Acuarela/internal/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.New(logging.DefaultConfig(config.ServiceName)).WithError(err).Error("Invalid configuration")
		os.Exit(1)
	}

	// Setup logger
	logger := logging.New(cfg.LoggerConfig())
	logger.SetDefault()

	logger.Info("Starting stock ledger API", "environment", cfg.Environment, "store", cfg.Store.Backend)

	ctx := context.Background()

	// Initialize OpenTelemetry tracing
	tracerProvider, err := tracing.Initialize(ctx, cfg.TracerConfig())
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
		// Continue without tracing - don't exit
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := bootstrap.ShutdownContext(5 * time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		logger.Info("Tracing initialized", "endpoint", cfg.Tracing.Endpoint)
	}

	// Initialize Prometheus metrics
	m := metrics.New(metrics.DefaultConfig(config.ServiceName))

	// Open the document store
	backend, err := bootstrap.OpenStore(ctx, cfg, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to open store")
		os.Exit(1)
	}
	defer func() {
		closeCtx, cancel := bootstrap.ShutdownContext(5 * time.Second)
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			logger.WithError(err).Error("Failed to close store")
		}
	}()

	if err := backend.EnsureIndexes(ctx); err != nil {
		logger.WithError(err).Warn("Failed to ensure indexes")
	}

	// Report cache is optional
	reportCache, redisClient, err := bootstrap.OpenReportCache(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("Report cache unavailable, summaries will be recomputed")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Outbox relay to Kafka
	if relay := bootstrap.NewRelay(cfg, backend, m, logger); relay != nil {
		if err := relay.Publisher.Start(ctx); err != nil {
			logger.WithError(err).Error("Failed to start outbox publisher")
			os.Exit(1)
		}
		defer func() {
			if err := relay.Close(); err != nil {
				logger.WithError(err).Error("Failed to stop outbox relay")
			}
		}()
		logger.Info("Outbox publisher started")
	} else {
		logger.Info("Kafka disabled, events stay in the outbox")
	}

	services, err := bootstrap.NewServices(cfg, backend, reportCache, m, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to build services")
		os.Exit(1)
	}

	// Setup Gin router with middleware
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	middleware.Setup(router, middleware.DefaultConfig(config.ServiceName, logger))
	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(config.ServiceName))

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(config.ServiceName))
	router.GET("/ready", middleware.ReadinessCheck(config.ServiceName, backend.Ping))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	handlers.RegisterRoutes(router, handlers.Services{
		Inventory: services.Inventory,
		Orders:    services.Orders,
		Ledger:    services.Ledger,
		Reports:   services.Reports,
	}, logger)

	// Start server
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
		}
	}()
	logger.Info("Server started", "addr", cfg.Server.Addr)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := bootstrap.ShutdownContext(cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped")
}
