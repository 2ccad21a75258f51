package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/course-eval-api/api/swagger"
	"github.com/noah-isme/course-eval-api/internal/handler"
	"github.com/noah-isme/course-eval-api/internal/repository"
	"github.com/noah-isme/course-eval-api/internal/service"
	"github.com/noah-isme/course-eval-api/pkg/cache"
	"github.com/noah-isme/course-eval-api/pkg/config"
	"github.com/noah-isme/course-eval-api/pkg/database"
	"github.com/noah-isme/course-eval-api/pkg/jobs"
	"github.com/noah-isme/course-eval-api/pkg/logger"
	"github.com/noah-isme/course-eval-api/pkg/storage"
)

// @title Course Evaluation API
// @version 1.0.0
// @description Admin console and student portal for course evaluations
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis connection failed", "error", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	metrics := service.NewMetricsService()
	app := buildApp(ctx, cfg, db, redisClient, metrics, logr)
	if app.exportQueue != nil {
		defer app.exportQueue.Stop()
	}

	r := newRouter(cfg, app, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
}

// app holds the handlers and background workers the router needs.
type app struct {
	metrics     *service.MetricsService
	auth        *service.AuthService
	auditRepo   *repository.AuditRepository
	exportQueue *jobs.Queue
	checks      map[string]handler.ReadinessCheck

	authHandler      *handler.AuthHandler
	portalHandler    *handler.StudentPortalHandler
	studentHandler   *handler.StudentHandler
	facultyHandler   *handler.FacultyHandler
	adminHandler     *handler.AdminHandler
	courseHandler    *handler.CourseHandler
	templateHandler  *handler.TemplateHandler
	reportHandler    *handler.ReportHandler
	complaintHandler *handler.ComplaintHandler
	calendarHandler  *handler.CalendarHandler
	dashboardHandler *handler.DashboardHandler
	metricsHandler   *handler.MetricsHandler
}

func buildApp(ctx context.Context, cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, metrics *service.MetricsService, logr *zap.Logger) *app {
	validate := validator.New()

	adminRepo := repository.NewAdminRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	calendarRepo := repository.NewCalendarRepository(db)
	complaintRepo := repository.NewComplaintRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	templateRepo := repository.NewEvaluationTemplateRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	facultyRequestRepo := repository.NewFacultyRequestRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	studentRepo := repository.NewStudentRepository(db)

	var sessions repository.SessionStore
	if redisClient != nil {
		sessions = repository.NewRedisSessionStore(redisClient)
	} else {
		logr.Warn("redis disabled, sessions are kept in process memory")
		sessions = repository.NewMemorySessionStore()
	}

	cacheSvc := service.NewCacheService(
		repository.NewCacheRepository(redisClient, logr),
		metrics,
		cfg.Cache.ReportTTL,
		logr,
		cfg.Cache.Enabled && redisClient != nil,
	)

	authSvc := service.NewAuthService(adminRepo, studentRepo, sessions, auditRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	adminSvc := service.NewAdminService(adminRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, templateRepo, validate, logr)
	facultySvc := service.NewFacultyService(facultyRepo, courseRepo, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, cacheSvc, validate, logr)
	templateSvc := service.NewEvaluationTemplateService(templateRepo, studentRepo, evaluationRepo, cacheSvc, validate, logr)
	reportSvc := service.NewReportService(evaluationRepo, cacheSvc, cfg.Cache.ReportTTL, logr)
	complaintSvc := service.NewComplaintService(complaintRepo, validate, logr)
	facultyRequestSvc := service.NewFacultyRequestService(facultyRequestRepo, validate, logr)
	calendarSvc := service.NewCalendarService(calendarRepo, validate, logr)
	settingsSvc := service.NewSettingsService(settingsRepo, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Students:        studentRepo,
		Batches:         studentRepo,
		Faculty:         facultyRepo,
		Courses:         courseRepo,
		Templates:       templateRepo,
		Complaints:      complaintRepo,
		FacultyRequests: facultyRequestRepo,
		Cache:           cacheSvc,
		CacheTTL:        cfg.Cache.DashboardTTL,
		Logger:          logr,
	})

	a := &app{
		metrics:   metrics,
		auth:      authSvc,
		auditRepo: auditRepo,
	}

	reportHandler := handler.NewReportHandler(reportSvc, nil)
	if cfg.Reports.Enabled {
		exportSvc, queue, err := buildExports(ctx, cfg, db, reportSvc, metrics, validate, logr)
		if err != nil {
			logr.Sugar().Fatalw("report exports unavailable", "error", err)
		}
		a.exportQueue = queue
		reportHandler = handler.NewReportHandler(reportSvc, exportSvc)
	}

	a.checks = map[string]handler.ReadinessCheck{
		"database": func(ctx context.Context) error {
			start := time.Now()
			err := db.PingContext(ctx)
			metrics.ObserveDBQuery("ping", time.Since(start))
			return err
		},
	}
	if redisClient != nil {
		a.checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	a.authHandler = handler.NewAuthHandler(authSvc)
	a.portalHandler = handler.NewStudentPortalHandler(handler.StudentPortalDeps{
		Students:        studentSvc,
		Evaluations:     templateSvc,
		Courses:         courseSvc,
		Complaints:      complaintSvc,
		FacultyRequests: facultyRequestSvc,
	})
	a.studentHandler = handler.NewStudentHandler(studentSvc)
	a.facultyHandler = handler.NewFacultyHandler(facultySvc)
	a.adminHandler = handler.NewAdminHandler(adminSvc)
	a.courseHandler = handler.NewCourseHandler(courseSvc)
	a.templateHandler = handler.NewTemplateHandler(templateSvc)
	a.reportHandler = reportHandler
	a.complaintHandler = handler.NewComplaintHandler(complaintSvc, facultyRequestSvc)
	a.calendarHandler = handler.NewCalendarHandler(calendarSvc)
	a.dashboardHandler = handler.NewDashboardHandler(dashboardSvc, settingsSvc)
	a.metricsHandler = handler.NewMetricsHandler(metrics, a.checks)

	return a
}

// buildExports starts the export worker pool and returns the service that feeds it.
func buildExports(ctx context.Context, cfg *config.Config, db *sqlx.DB, reports *service.ReportService, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) (*service.ReportExportService, *jobs.Queue, error) {
	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, nil, fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exporter := service.NewExportService(reports, files, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, service.ExportRenderers{})

	exportRepo := repository.NewReportExportRepository(db)
	worker := service.NewReportExportWorker(exportRepo, exporter, metrics, cfg.Reports.WorkerRetries, logr)
	queue := jobs.NewQueue("report-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)

	svc := service.NewReportExportService(exportRepo, queue, exporter, validate, logr, service.ReportExportConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	svc.RecoverPendingJobs(ctx)
	svc.StartCleanup(ctx)
	return svc, queue, nil
}
