package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/horario-api/internal/handler"
	"github.com/noah-isme/horario-api/internal/middleware"
	"github.com/noah-isme/horario-api/internal/repository"
	"github.com/noah-isme/horario-api/internal/service"
	"github.com/noah-isme/horario-api/pkg/cache"
	"github.com/noah-isme/horario-api/pkg/config"
	"github.com/noah-isme/horario-api/pkg/jobs"
	"github.com/noah-isme/horario-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/horario-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/horario-api/pkg/middleware/requestid"
	"github.com/noah-isme/horario-api/pkg/storage"
)

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

	blobs, err := buildBlobStore(cfg)
	if err != nil {
		logr.Sugar().Fatalw("failed to init snapshot storage", "backend", cfg.Storage.Backend, "error", err)
	}

	repo := repository.NewStateRepository(blobs, logr)
	if err := repo.Load(ctx); err != nil {
		logr.Sugar().Fatalw("failed to load persisted snapshot", "error", err)
	}

	metricsSvc := service.NewMetricsService()
	groupSvc := service.NewGroupService(repo, nil, logr)
	scheduleSvc := service.NewScheduleService(repo, nil, metricsSvc, logr)
	conflictSvc := service.NewConflictService(repo, cfg.Conflicts.CacheTTL, metricsSvc, logr)
	teacherSvc := service.NewTeacherService(repo, logr)
	snapshotSvc := service.NewSnapshotService(repo, metricsSvc, logr)

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "dir", cfg.Exports.StorageDir, "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(repo, files, signer, service.ExportServiceConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, logr)
		queue := jobs.NewQueue("exports", exportSvc.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		exportSvc.SetQueue(queue)
		exportSvc.StartCleanup(ctx, cfg.Exports.CleanupInterval)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	metricsHandler := handler.NewMetricsHandler(metricsSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		groups:    handler.NewGroupHandler(groupSvc),
		schedule:  handler.NewScheduleHandler(scheduleSvc),
		teachers:  handler.NewTeacherHandler(teacherSvc, scheduleSvc),
		conflicts: handler.NewConflictHandler(conflictSvc),
		snapshots: handler.NewSnapshotHandler(snapshotSvc),
		metrics:   metricsHandler,
		exports:   exportSvc,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "storage", cfg.Storage.Backend)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	if err := server.Shutdown(context.Background()); err != nil {
		logr.Sugar().Warnw("shutdown incomplete", "error", err)
	}
}

type routeDeps struct {
	groups    *handler.GroupHandler
	schedule  *handler.ScheduleHandler
	teachers  *handler.TeacherHandler
	conflicts *handler.ConflictHandler
	snapshots *handler.SnapshotHandler
	metrics   *handler.MetricsHandler
	exports   *service.ExportService
}

func registerRoutes(api *gin.RouterGroup, deps routeDeps) {
	groups := api.Group("/groups")
	{
		groups.GET("", deps.groups.List)
		groups.POST("", deps.groups.Create)
		groups.GET("/:id", deps.groups.Get)
		groups.PUT("/:id", deps.groups.Update)
		groups.DELETE("/:id", deps.groups.Delete)
		groups.GET("/:id/summary", deps.groups.Summary)

		groups.POST("/:id/subjects", deps.groups.AddSubject)
		groups.PUT("/:id/subjects/:subjectId", deps.groups.UpdateSubject)
		groups.DELETE("/:id/subjects/:subjectId", deps.groups.DeleteSubject)

		groups.GET("/:id/schedule", deps.groups.Schedule)
		groups.PUT("/:id/schedule/:day/:period", deps.schedule.SetAssignment)
		groups.DELETE("/:id/schedule/:day/:period", deps.schedule.ClearAssignment)
	}

	teachers := api.Group("/teachers")
	{
		teachers.GET("", deps.teachers.List)
		teachers.GET("/:name/schedule", deps.teachers.Schedule)
		teachers.GET("/:name/summary", deps.teachers.Summary)
		teachers.PUT("/:name/blocks/:day/:period", deps.teachers.SetBlock)
		teachers.DELETE("/:name/blocks/:day/:period", deps.teachers.DeleteBlock)
	}

	api.GET("/conflicts", deps.conflicts.List)
	api.POST("/conflicts/check", deps.conflicts.Check)

	api.GET("/snapshot", deps.snapshots.Export)
	api.POST("/snapshot", deps.snapshots.Import)
	api.DELETE("/snapshot", deps.snapshots.Reset)

	api.GET("/stats", deps.metrics.Stats)

	if deps.exports != nil {
		exports := handler.NewExportHandler(deps.exports)
		api.POST("/exports", exports.Create)
		api.GET("/exports/:id", exports.Status)
		api.GET("/exports/download/:token", exports.Download)
	}
}

func buildBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	switch cfg.Storage.Backend {
	case config.StorageMemory:
		return storage.NewMemoryBlobStore(), nil
	case config.StorageRedis:
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisBlobStore(client, cfg.Storage.Key), nil
	case config.StorageMinio:
		return storage.NewMinioBlobStore(cfg.Minio, cfg.Storage.Key)
	case config.StorageFile:
		return storage.NewFileBlobStore(cfg.Storage.Dir, cfg.Storage.Key)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
