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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/activitypass-api/api/swagger"
	"github.com/noah-isme/activitypass-api/internal/handler"
	internalmiddleware "github.com/noah-isme/activitypass-api/internal/middleware"
	"github.com/noah-isme/activitypass-api/internal/repository"
	"github.com/noah-isme/activitypass-api/internal/scheduling"
	"github.com/noah-isme/activitypass-api/internal/service"
	"github.com/noah-isme/activitypass-api/pkg/cache"
	"github.com/noah-isme/activitypass-api/pkg/config"
	"github.com/noah-isme/activitypass-api/pkg/database"
	"github.com/noah-isme/activitypass-api/pkg/jobs"
	"github.com/noah-isme/activitypass-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/activitypass-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/activitypass-api/pkg/middleware/requestid"
	"github.com/noah-isme/activitypass-api/pkg/storage"
)

// @title ActivityPass API
// @version 1.0.0
// @description Course timetables, activity eligibility and enrollment audits
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

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db.DB, logr); err != nil {
			logr.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
	}

	location := cfg.Campus.Location()
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	expander := scheduling.NewExpander(scheduling.DefaultPeriodTable, location)

	termRepo := repository.NewTermRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewCourseEnrollmentRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	auditJobRepo := repository.NewAuditExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logger.Named(logr, "cache"))

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.CourseEvents.CacheTTL, logr, redisClient != nil)
	termSvc := service.NewTermCalendarService(termRepo, location, validate, logr)
	courseEventSvc := service.NewCourseEventService(studentRepo, courseRepo, termSvc, expander, cacheSvc, cfg.CourseEvents.CacheTTL, logr)
	eligibilitySvc := service.NewEligibilityService(studentRepo, activityRepo, participationRepo, courseEventSvc, expander, metricsSvc, service.EligibilityConfig{
		AnnualCap:    cfg.Eligibility.AnnualCap,
		Window:       cfg.Eligibility.Window,
		DefaultLimit: cfg.Eligibility.EligibleLimit,
	}, logr)
	auditSvc := service.NewConflictAuditService(enrollmentRepo, logr)

	files, err := storage.NewDiskStore(cfg.Audits.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	signer := storage.NewSigner(cfg.Audits.SignedURLSecret, cfg.Audits.SignedURLTTL)

	var worker *service.AuditExportWorker
	queue := jobs.NewQueue(service.AuditExportJobType, func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Audits.WorkerConcurrency,
		MaxRetries: cfg.Audits.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logger.Named(logr, "audit-export-queue"),
	})
	exportSvc := service.NewAuditExportService(auditJobRepo, queue, files, signer, auditSvc, validate, logr, service.AuditExportConfig{
		Enabled:         cfg.Audits.ExportsEnabled,
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Audits.SignedURLTTL,
		CleanupInterval: cfg.Audits.CleanupInterval,
	})
	worker = service.NewAuditExportWorker(auditJobRepo, exportSvc, metricsSvc, cfg.Audits.WorkerRetries, logger.Named(logr, "audit-export-worker"))

	if cfg.Audits.ExportsEnabled {
		queue.Start(ctx)
		defer queue.Stop()
		exportSvc.RecoverPendingJobs(ctx)
		exportSvc.StartCleanup(ctx)
	}

	studentHandler := handler.NewStudentHandler(courseEventSvc)
	eligibilityHandler := handler.NewEligibilityHandler(eligibilitySvc, validate)
	auditHandler := handler.NewAuditHandler(auditSvc, exportSvc)
	termHandler := handler.NewTermHandler(termSvc)
	checks := map[string]handler.Pinger{"postgres": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() })
	}
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/system/metrics", metricsHandler.System)

	students := api.Group("/students/:studentId")
	students.GET("/courses", studentHandler.Courses)
	students.GET("/course-events", studentHandler.CourseEvents)
	students.GET("/course-events.ics", studentHandler.CourseEventsICS)
	students.GET("/activities/eligible", eligibilityHandler.ListEligible)
	students.GET("/activities/:activityId/eligibility", eligibilityHandler.Check)
	students.POST("/activities/:activityId/apply", eligibilityHandler.Apply)

	audits := api.Group("/audits")
	audits.GET("/course-conflicts", auditHandler.CourseConflicts)
	audits.POST("/course-conflicts/exports", auditHandler.CreateExport)
	audits.GET("/course-conflicts/exports/:id", auditHandler.ExportStatus)
	audits.GET("/downloads/:token", auditHandler.Download)

	api.POST("/terms/:term/anchor/validate", termHandler.ValidateAnchor)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
