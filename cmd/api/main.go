package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "talent-pipeline/docs" // Swagger docs
	"talent-pipeline/internal/api"
	"talent-pipeline/internal/config"
	"talent-pipeline/internal/cv"
	"talent-pipeline/internal/logger"
	"talent-pipeline/internal/metrics"
	"talent-pipeline/internal/recruiting"
	"talent-pipeline/internal/storage"
)

// @title Talent Pipeline API
// @version 1.0
// @description Résumé ingestion, skill scoring and hiring-pipeline tracking

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /api

// backend is what the service needs from a store: candidates, jobs and a health check.
type backend interface {
	storage.CandidateStore
	storage.JobRegistry
	api.HealthChecker
}

type memoryBackend struct {
	*storage.MemoryStore
}

func (memoryBackend) Ping(context.Context) error { return nil }

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	lg, err := logger.New(cfg.LogJSON, cfg.LogLevel)
	if err != nil {
		log.Fatal("logger:", err)
	}
	defer func() { _ = lg.Sync() }()

	store, closeStore, err := openStore(cfg, lg)
	if err != nil {
		lg.Fatal("store open failed", zap.String("store", cfg.Store), zap.Error(err))
	}
	defer closeStore()

	vocabulary := cv.DefaultVocabulary
	if len(cfg.SkillVocabulary) > 0 {
		vocabulary = cfg.SkillVocabulary
	}

	rec := metrics.New()
	svc, err := recruiting.NewService(store, store, cv.NewCVParser(cfg.UploadsDir), cv.NewExtractor(vocabulary),
		recruiting.WithMetrics(rec),
		recruiting.WithLogger(lg),
		recruiting.WithDefaultRole(cfg.DefaultRole),
	)
	if err != nil {
		lg.Fatal("service setup failed", zap.Error(err))
	}

	apiSrv := api.NewAPI(svc, api.Options{
		MaxUploadBytes: cfg.MaxUploadBytes(),
		Health:         store,
		Logger:         lg,
	})
	router := api.NewRouter(apiSrv, rec)

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second, // file uploads
		WriteTimeout: 2 * time.Minute,  // docconv on large documents
		IdleTimeout:  120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			lg.Warn("server shutdown", zap.Error(err))
		}
		close(idleConnsClosed)
	}()

	lg.Info("API server listening",
		zap.String("addr", cfg.Addr),
		zap.String("store", cfg.Store),
		zap.Int("vocabulary_size", len(vocabulary)),
	)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		lg.Fatal("server failed", zap.Error(err))
	}

	<-idleConnsClosed
}

// openStore connects the configured backend and seeds the job registry.
func openStore(cfg *config.Config, lg *zap.Logger) (backend, func(), error) {
	jobs := cfg.SeedJobs()

	if cfg.Store == config.StoreMemory {
		lg.Warn("using in-memory store; candidates are lost on restart")
		return memoryBackend{storage.NewMemoryStore(jobs...)}, func() {}, nil
	}

	lg.Info("Connecting to database...")
	db, err := storage.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	for _, j := range jobs {
		if err := db.SaveJob(ctx, j); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	lg.Info("Database connected successfully", zap.Int("seeded_jobs", len(jobs)))
	return db, db.Close, nil
}
