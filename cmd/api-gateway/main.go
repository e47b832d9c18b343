package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Edufam-Tech/edufam-backend-sub000/api/swagger"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/handler"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/middleware"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/models"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/repository"
	"github.com/Edufam-Tech/edufam-backend-sub000/internal/service"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/cache"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/config"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/database"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/jobs"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/logger"
	corsmiddleware "github.com/Edufam-Tech/edufam-backend-sub000/pkg/middleware/cors"
	reqidmiddleware "github.com/Edufam-Tech/edufam-backend-sub000/pkg/middleware/requestid"
	"github.com/Edufam-Tech/edufam-backend-sub000/pkg/storage"
)

// @title Edufam Timetable Engine API
// @version 1.0.0
// @description Timetable generation, conflict detection, and publish lifecycle for school scopes.
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	// Redis is best effort: without it the API still serves, just uncached.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Engine.ReadCacheTTL, logr, redisClient != nil)

	versionRepo := repository.NewTimetableVersionRepository(db)
	entryRepo := repository.NewTimetableEntryRepository(db)
	conflictRepo := repository.NewTimetableConflictRepository(db)
	configRepo := repository.NewScheduleConfigRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)

	tokenSvc := service.NewTokenService(cfg.JWT.Secret)
	configSvc := service.NewScheduleConfigService(configRepo, cacheSvc, nil, logr)
	constraintSvc := service.NewConstraintService(constraintRepo, nil, logr)
	versionSvc := service.NewTimetableVersionService(
		versionRepo,
		entryRepo,
		conflictRepo,
		db,
		cacheSvc,
		metricsSvc,
		nil,
		logr,
		service.TimetableVersionServiceConfig{ReadCacheTTL: cfg.Engine.ReadCacheTTL},
	)
	generatorSvc := service.NewTimetableGeneratorService(
		versionRepo,
		entryRepo,
		conflictRepo,
		configRepo,
		constraintSvc,
		referenceRepo,
		db,
		cacheSvc,
		metricsSvc,
		nil,
		logr,
		service.TimetableGeneratorConfig{
			DefaultSeed:       cfg.Engine.DefaultSeed,
			BacktracksPerUnit: cfg.Engine.BacktracksPerUnit,
			Timeout:           cfg.Engine.GenerationTimeout,
		},
	)

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	queue := jobs.NewQueue("timetable_generation", generatorSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Engine.WorkerConcurrency,
		BufferSize: cfg.Engine.QueueSize,
		Logger:     logr,
	})
	generatorSvc.AttachQueue(queue)
	queue.Start(rootCtx)

	var exportSvc *service.TimetableExportService
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewTimetableExportService(
			versionRepo,
			entryRepo,
			referenceRepo,
			fileStore,
			signer,
			nil,
			logr,
			service.TimetableExportConfig{
				APIPrefix:       cfg.APIPrefix,
				ResultTTL:       cfg.Exports.SignedURLTTL,
				CleanupInterval: cfg.Exports.CleanupInterval,
			},
		)
		exportSvc.StartCleanup(rootCtx)
	}

	timetableHandler := handler.NewTimetableHandler(generatorSvc, versionSvc, exportSvc)
	configHandler := handler.NewScheduleConfigHandler(configSvc)
	constraintHandler := handler.NewConstraintHandler(constraintSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		if redisClient != nil {
			if err := redisClient.Ping(c.Request.Context()).Err(); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "cache": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/metrics/summary", metricsHandler.Summary)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r, cfg, tokenSvc, timetableHandler, configHandler, constraintHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logr.Sugar().Infow("shutting down", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}

	rootCancel()
	queue.Stop()

	if redisClient != nil {
		_ = redisClient.Close()
	}
	logr.Sugar().Infow("server stopped")
}

// registerRoutes mounts the engine API under the configured prefix. Writes
// that change schedules require an admin role; reads are open to any
// authenticated school user. The export download route does not require a
// session because the signed token in the query string carries the grant;
// claims still attach when a bearer token is present.
func registerRoutes(
	r *gin.Engine,
	cfg *config.Config,
	tokenSvc *service.TokenService,
	timetableHandler *handler.TimetableHandler,
	configHandler *handler.ScheduleConfigHandler,
	constraintHandler *handler.ConstraintHandler,
) {
	root := r.Group(cfg.APIPrefix)

	root.GET("/timetable/exports/download", middleware.OptionalJWT(tokenSvc), timetableHandler.Download)

	api := root.Group("")
	api.Use(middleware.JWT(tokenSvc))

	adminOnly := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	staffUp := middleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleStaff)

	timetable := api.Group("/timetable")
	{
		timetable.POST("/generate", adminOnly, timetableHandler.Generate)
		timetable.GET("/active", timetableHandler.Active)
		timetable.GET("/versions", timetableHandler.List)
		timetable.GET("/versions/:id", timetableHandler.Get)
		timetable.GET("/versions/:id/entries", timetableHandler.Entries)
		timetable.GET("/versions/:id/conflicts", timetableHandler.Conflicts)
		timetable.POST("/versions/:id/publish", adminOnly, timetableHandler.Publish)
		timetable.DELETE("/versions/:id", adminOnly, timetableHandler.Discard)
		timetable.POST("/versions/:id/export", staffUp, timetableHandler.Export)
		timetable.POST("/conflicts/detect", staffUp, timetableHandler.Detect)
	}

	scheduling := api.Group("/scheduling")
	{
		scheduling.GET("/config", configHandler.Get)
		scheduling.PUT("/config", adminOnly, configHandler.Upsert)

		constraints := scheduling.Group("/constraints")
		constraints.GET("/teacher-availability", constraintHandler.ListTeacherAvailability)
		constraints.PUT("/teacher-availability", staffUp, constraintHandler.UpsertTeacherAvailability)
		constraints.GET("/room-availability", constraintHandler.ListRoomAvailability)
		constraints.PUT("/room-availability", staffUp, constraintHandler.UpsertRoomAvailability)
		constraints.GET("/subject-requirements", constraintHandler.ListSubjectRequirements)
		constraints.PUT("/subject-requirements", staffUp, constraintHandler.UpsertSubjectRequirement)
	}
}
