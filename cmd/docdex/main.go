package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docdex/internal/config"
	"github.com/kailas-cloud/docdex/internal/domain"
	logpkg "github.com/kailas-cloud/docdex/internal/logger"
	"github.com/kailas-cloud/docdex/internal/metrics"
	"github.com/kailas-cloud/docdex/internal/repository/indexstore"
	chiTransport "github.com/kailas-cloud/docdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/docdex/internal/transport/openai"
	"github.com/kailas-cloud/docdex/internal/transport/pdf"
	classifyuc "github.com/kailas-cloud/docdex/internal/usecase/classify"
	extractuc "github.com/kailas-cloud/docdex/internal/usecase/extract"
	indexuc "github.com/kailas-cloud/docdex/internal/usecase/index"
	pipelineuc "github.com/kailas-cloud/docdex/internal/usecase/pipeline"
	"github.com/kailas-cloud/docdex/internal/version"
)

func main() {
	// .env is optional; real deployments use environment variables.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting docdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	pdf.InitLicense(logger)

	ctx := context.Background()

	// Snapshot repository based on driver
	var repo indexuc.Repository
	switch cfg.Storage.Driver {
	case "sqlite":
		store, err := indexstore.NewSQLite(cfg.Storage.Path)
		if err != nil {
			logger.Fatal("Failed to open sqlite store", zap.Error(err))
		}
		defer store.Close()
		repo = store
	case "redis":
		store, err := indexstore.NewRedis(indexstore.RedisConfig{
			Addrs:     cfg.Storage.Addrs,
			Password:  cfg.Storage.Password,
			KeyPrefix: cfg.Storage.KeyPrefix,
		})
		if err != nil {
			logger.Fatal("Failed to create redis store", zap.Error(err))
		}
		defer store.Close()
		if err := store.WaitForReady(ctx, 30*time.Second); err != nil {
			logger.Fatal("Redis not ready", zap.Error(err))
		}
		repo = store
	default:
		logger.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}
	logger.Info("Connected to snapshot storage")

	// Register model metrics explicitly (no init())
	metrics.RegisterModelMetrics()

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Embedding.TimeoutSec) * time.Second,
		Logger:     logger,
	})
	scorer := openaiTransport.NewZeroShotScorer(&openaiTransport.ScorerConfig{
		APIKey:  cfg.Embedding.APIKey,
		BaseURL: cfg.Embedding.BaseURL,
		Model:   cfg.Classifier.Model,
		Logger:  logger,
	})
	logger.Info("Model transports created",
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("scoring_model", cfg.Classifier.Model),
	)

	classifier := classifyuc.New(scorer, classifyuc.Config{
		ModelWeight:     cfg.Classifier.ModelWeight,
		RuleWeight:      cfg.Classifier.RuleWeight,
		ConfidenceFloor: cfg.Classifier.ConfidenceFloor,
		RuleOverride:    cfg.Classifier.RuleOverride,
		Timeout:         time.Duration(cfg.Classifier.TimeoutSec) * time.Second,
	})
	registry := extractuc.NewRegistry()

	indexStore := indexuc.NewStore(repo, embedder)
	if err := indexStore.LoadAll(ctx); err != nil {
		logger.Fatal("Failed to restore indexes", zap.Error(err))
	}

	pipe := pipelineuc.New(classifier, registry, indexStore)

	server := chiTransport.NewServer(chiTransport.ServerConfig{
		Pipeline:  pipe,
		Extractor: pdf.NewExtractor(logger),
		Search:    indexStore,
		Health: []domain.HealthChecker{
			namedHealthChecker{"embedding", embedder},
			namedHealthChecker{"scoring", scorer},
		},
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
		DefaultTopK:    cfg.Search.DefaultTopK,
		MaxTopK:        cfg.Search.MaxTopK,
		Logger:         logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(),
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// namedHealthChecker labels a health check in the /healthz response.
type namedHealthChecker struct {
	name    string
	checker domain.HealthChecker
}

func (n namedHealthChecker) Name() string { return n.name }

func (n namedHealthChecker) HealthCheck(ctx context.Context) error {
	if err := n.checker.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%s health check: %w", n.name, err)
	}
	return nil
}
