// QueryForge - Server Entry Point
//
// QueryForge converts free-text descriptions of data questions into
// validated, ranked query DSL candidates. This entry point wires all
// dependencies and starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/queryforge/queryforge/internal/builder"
	"github.com/queryforge/queryforge/internal/config"
	"github.com/queryforge/queryforge/internal/handler"
	"github.com/queryforge/queryforge/internal/intent"
	"github.com/queryforge/queryforge/internal/logger"
	"github.com/queryforge/queryforge/internal/perspective"
	"github.com/queryforge/queryforge/internal/ranker"
	"github.com/queryforge/queryforge/internal/schema"
	"github.com/queryforge/queryforge/internal/service"
	"github.com/queryforge/queryforge/internal/validator"
	"github.com/queryforge/queryforge/pkg/sanitizer"
)

func main() {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	// Determine if we're in development mode
	isDev := os.Getenv("GIN_MODE") != "release"

	// Initialize logger
	zapLogger, err := logger.New(isDev)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting QueryForge",
		zap.Bool("development", isDev),
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	zapLogger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("builder_provider", string(cfg.Builder.Provider)),
		zap.Bool("schema_discovery", cfg.Schema.BaseURL != ""),
		zap.Int("max_perspectives", cfg.Pipeline.MaxPerspectives),
	)

	// Initialize the query builder
	var builderClient builder.Client
	switch cfg.Builder.Provider {
	case config.BuilderProviderOpenAI:
		promptBuilder, err := builder.NewDefaultPromptBuilder()
		if err != nil {
			zapLogger.Fatal("failed to create prompt builder", zap.Error(err))
		}
		builderClient = builder.NewLLMClient(&cfg.Builder, promptBuilder, zapLogger)
	default:
		builderClient = builder.NewRuleClient(zapLogger)
	}

	// Initialize schema discovery when a cluster endpoint is configured
	var schemaSource service.SchemaSource
	if cfg.Schema.BaseURL != "" {
		provider := schema.NewHTTPProvider(
			cfg.Schema.BaseURL,
			cfg.Schema.APIKey,
			cfg.Schema.FetchTimeout,
			zapLogger,
		)
		schemaSource = schema.NewModel(
			provider,
			cfg.Schema.CacheTTL,
			cfg.Schema.CacheMaxEntries,
			zapLogger,
		)
	} else {
		zapLogger.Warn("SCHEMA_BASE_URL not set - schema-aware checks are disabled for index patterns")
	}

	// Initialize the pipeline
	pipeline := service.NewPipeline(
		intent.NewExtractor(zapLogger),
		schemaSource,
		perspective.NewGenerator(cfg.Pipeline.MaxPerspectives, zapLogger),
		builderClient,
		validator.NewValidator(zapLogger),
		ranker.NewRanker(zapLogger),
		sanitizer.New(cfg.Pipeline.MaxInputSize),
		zapLogger,
	)

	// Initialize handlers
	generateHandler := handler.NewGenerateHandler(pipeline, zapLogger)
	validateHandler := handler.NewValidateHandler(pipeline, zapLogger)
	schemaHandler := handler.NewSchemaHandler(pipeline, zapLogger)
	healthHandler := handler.NewHealthHandler(zapLogger)
	readyHandler := handler.NewReadyHandler(pipeline, zapLogger)

	// Setup Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Apply middleware
	router.Use(handler.RecoveryMiddleware(zapLogger))
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.LoggingMiddleware(zapLogger))
	router.Use(handler.CORSMiddleware())

	// Register routes
	router.GET("/health", healthHandler.Handle)
	router.GET("/ready", readyHandler.Handle)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/query/generate", generateHandler.Handle)
		v1.POST("/query/validate", validateHandler.Handle)
		v1.POST("/schema/analyze", schemaHandler.Handle)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server...")

	// Give the server 10 seconds to finish processing
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	zapLogger.Info("server stopped")
}
