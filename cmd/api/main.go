package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/analyzer"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/classifier"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/guardrail"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/pipeline"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/application/render"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/config"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/document"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/report"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/domain/session"
	openaiclient "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/ai/openai"
	mysqlp "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/db/mysql"
	pgp "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/db/postgres"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/executor/ocr"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/extract"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/httpserver"
	sessionstore "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/session"
	minioStore "github.com/AbdulSamad94/Legalyze-AI-Backend/internal/infra/storage"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/logging"
	"github.com/AbdulSamad94/Legalyze-AI-Backend/internal/middleware"
)

const version = "1.0.0"

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

type sessionBackend interface {
	session.Store
	Ping(ctx context.Context) error
}

type reportBackend interface {
	report.Repository
	EnsureSchema(ctx context.Context) error
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checkers := map[string]middleware.HealthChecker{}

	// session store
	var sessions sessionBackend
	switch cfg.Session.Backend {
	case "redis":
		rs, err := sessionstore.NewRedisStore(sessionstore.RedisConfig{
			Addr:     cfg.Session.Redis.Addr,
			Password: cfg.Session.Redis.Password,
			DB:       cfg.Session.Redis.DB,
			TTL:      cfg.Session.Redis.TTL,
		})
		if err != nil {
			return err
		}
		defer rs.Close()
		sessions = rs
	default:
		sessions = sessionstore.NewMemoryStore()
	}
	checkers["sessions"] = middleware.PingChecker{Target: sessions}

	// report archive (optional)
	var reports report.Repository
	if cfg.Database.Driver != "" {
		db, repo, err := openReports(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repo.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		reports = repo
		checkers["database"] = middleware.PingChecker{Target: repo}
	}

	// minio (optional); empty endpoint disables it
	var archive document.ArchiveStore
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		archive = store
		checkers["storage"] = middleware.PingChecker{Target: store}
	}

	// OCR hanya dipakai kalau binary-nya ada
	var recognizer extract.OCR
	if cfg.OCR.Enabled {
		runner := ocr.NewRunner(ocr.Options{
			Tesseract: cfg.OCR.Tesseract,
			PDFToPPM:  cfg.OCR.PDFToPPM,
			Language:  cfg.OCR.Language,
			Timeout:   cfg.OCR.Timeout,
		}, logger)
		if runner.Available() {
			recognizer = runner
		} else {
			logger.Warn("tesseract not found, image and scanned PDF uploads are disabled")
		}
	}

	if cfg.Inference.APIKey == "" {
		logger.Warn("no inference API key configured; capability calls will fail")
	}
	provider := openaiclient.NewClient(openaiclient.Options{
		BaseURL:           cfg.Inference.BaseURL,
		APIKey:            cfg.Inference.APIKey,
		Model:             cfg.Inference.Model,
		MaxTokens:         cfg.Inference.MaxTokens,
		Temperature:       cfg.Inference.Temperature,
		Timeout:           cfg.Inference.Timeout,
		MaxRetries:        cfg.Inference.MaxRetries,
		BaseBackoff:       cfg.Inference.BaseBackoff,
		RequestsPerSecond: cfg.Inference.RequestsPerSecond,
		Burst:             cfg.Inference.Burst,
	}, logger)

	clock := application.SystemClock{}
	guard := guardrail.NewChecker(provider, logger)
	svc := &pipeline.Service{
		Guard:        guard,
		Classifier:   classifier.New(provider, cfg.Pipeline.ClassifierThreshold, logger),
		Orchestrator: analyzer.NewOrchestrator(provider, guard, analyzer.NewNormalizer(logger), cfg.Pipeline.ToolAttempts, logger),
		Renderer:     render.New(provider, guard, logger),
		Sessions:     sessions,
		Reports:      reports,
		Clock:        clock,
		Logger:       logger,
		StepDelay:    cfg.Pipeline.StepDelay,
	}

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.RPS, cfg.Server.RateLimit.Burst)
	defer limiter.Close()

	handler := httpserver.NewRouter(httpserver.Options{
		Pipeline:           svc,
		Sessions:           sessions,
		Reports:            reports,
		Extractor:          extract.New(recognizer, logger),
		Archive:            archive,
		Clock:              clock,
		Logger:             logger,
		Version:            version,
		MaxUploadBytes:     cfg.Server.MaxUploadBytes,
		CancelOnDisconnect: cfg.Pipeline.CancelOnDisconnect,
		PipelineTimeout:    cfg.Pipeline.Timeout,
		CORSOrigins:        cfg.Server.CORSOrigins,
		APIKeys:            cfg.Server.APIKeys,
		RateLimiter:        limiter,
		HealthCheckers:     checkers,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("model", cfg.Inference.Model),
			zap.String("session_backend", cfg.Session.Backend),
			zap.String("database", cfg.Database.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server...")
		// biarkan stream yang sedang jalan selesai dulu
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func openReports(ctx context.Context, cfg *config.Config) (*sql.DB, reportBackend, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		return db, mysqlp.NewReportRepository(db), nil
	case "postgres":
		db, err := pgp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		return db, pgp.NewReportRepository(db), nil
	}
	return nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
}
