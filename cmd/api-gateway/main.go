package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/eduscheduler-api/api/swagger"
	"github.com/noah-isme/eduscheduler-api/internal/handler"
	"github.com/noah-isme/eduscheduler-api/internal/repository"
	"github.com/noah-isme/eduscheduler-api/internal/scheduler"
	"github.com/noah-isme/eduscheduler-api/internal/service"
	"github.com/noah-isme/eduscheduler-api/pkg/cache"
	"github.com/noah-isme/eduscheduler-api/pkg/config"
	"github.com/noah-isme/eduscheduler-api/pkg/database"
	"github.com/noah-isme/eduscheduler-api/pkg/logger"
	"github.com/noah-isme/eduscheduler-api/pkg/storage"
)

// @title EduScheduler API
// @version 1.0.0
// @description Faculty, subject, classroom and batch management with weekly timetable generation.
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to open store", "driver", cfg.Store.Driver, "error", err)
	}
	stores := repository.NewMemoryRegistry(nil)
	if db != nil {
		defer db.Close()
		if cfg.Store.AutoSchema {
			if err := database.EnsureSchema(ctx, db); err != nil {
				logr.Sugar().Fatalw("failed to apply schema", "error", err)
			}
		}
		stores = repository.NewSQLRegistry(db)
	}

	redisClient, err := cache.NewRedis(cfg.Redis, cfg.Cache)
	if err != nil {
		// The cache is optional; generation and reads fall back to the store.
		logr.Warn("redis unavailable, timetable cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare export storage", "dir", cfg.Exports.StorageDir, "error", err)
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, "eduscheduler", logger.Component(logr, "cache"))
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TimetableTTL, logger.Component(logr, "cache"), cfg.Cache.Enabled && redisClient != nil)

	sources := service.EntitySources{
		Faculty:    stores.Faculty,
		Subjects:   stores.Subjects,
		Classrooms: stores.Classrooms,
		Batches:    stores.Batches,
		Rules:      stores.Rules,
	}
	engine := scheduler.NewEngine(scheduler.EngineConfig{
		DefaultPeriods: cfg.Scheduler.DefaultPeriods,
		Logger:         logger.Component(logr, "scheduler"),
	})

	timetableSvc := service.NewTimetableService(sources, stores.Timetables, engine, cacheSvc, metricsSvc, service.TimetableOptions{
		StrictAvailability: cfg.Scheduler.StrictAvailability,
		Seed:               cfg.Scheduler.Seed,
		CacheTTL:           cfg.Cache.TimetableTTL,
	}, validate, logger.Component(logr, "timetables"))

	exportSvc := service.NewExportService(timetableSvc, sources, repository.NewExportJobRepository(), fileStore, signer, metricsSvc, service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		Workers:         cfg.Exports.WorkerConcurrency,
		MaxRetries:      cfg.Exports.WorkerRetries,
		RetryDelay:      time.Second,
	}, logger.Component(logr, "exports"))
	exportSvc.Start(ctx)
	defer exportSvc.Stop()

	handlers := routeHandlers{
		faculty:    handler.NewFacultyHandler(service.NewFacultyService(stores.Faculty, validate, logger.Component(logr, "faculty"))),
		subjects:   handler.NewSubjectHandler(service.NewSubjectService(stores.Subjects, stores.Batches, validate, logger.Component(logr, "subjects"))),
		classrooms: handler.NewClassroomHandler(service.NewClassroomService(stores.Classrooms, validate, logger.Component(logr, "classrooms"))),
		batches:    handler.NewBatchHandler(service.NewBatchService(stores.Batches, stores.Subjects, stores.Faculty, validate, logger.Component(logr, "batches"))),
		rules:      handler.NewRulesHandler(service.NewRulesService(stores.Rules, validate, logger.Component(logr, "rules"))),
		timetables: handler.NewTimetableHandler(timetableSvc),
		exports:    handler.NewExportHandler(exportSvc),
		metrics:    handler.NewMetricsHandler(metricsSvc, readinessChecks(db, redisClient)),
	}
	r := newRouter(cfg, logr, metricsSvc, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logr.Sugar().Errorw("server failed", "error", err)
		}
	case <-ctx.Done():
		logr.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func readinessChecks(db *sqlx.DB, client *redis.Client) map[string]handler.Pinger {
	checks := make(map[string]handler.Pinger)
	if db != nil {
		checks["database"] = db
	}
	if client != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}
	return checks
}
