package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/andino-edu/horario-api/api/swagger"
	"github.com/andino-edu/horario-api/internal/handler"
	"github.com/andino-edu/horario-api/internal/middleware"
	"github.com/andino-edu/horario-api/internal/repository"
	"github.com/andino-edu/horario-api/internal/service"
	"github.com/andino-edu/horario-api/pkg/cache"
	"github.com/andino-edu/horario-api/pkg/config"
	"github.com/andino-edu/horario-api/pkg/database"
	"github.com/andino-edu/horario-api/pkg/jobs"
	"github.com/andino-edu/horario-api/pkg/logger"
	corsmiddleware "github.com/andino-edu/horario-api/pkg/middleware/cors"
	reqidmiddleware "github.com/andino-edu/horario-api/pkg/middleware/requestid"
)

// @title Horario API
// @version 0.1.0
// @description Weekly class schedule generation for primary grades
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, result caching disabled", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	teacherRepo := repository.NewTeacherRepository(db)
	classRepo := repository.NewClassRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	configRepo := repository.NewScheduleConfigRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	englishRepo := repository.NewEnglishRepository(db)
	generationRepo := repository.NewGenerationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()

	// The queue and the service reference each other; the queue handler is
	// bound after the service exists.
	var generationWorker *service.GenerationWorker
	queue := jobs.NewQueue("generations", func(ctx context.Context, job jobs.Job) error {
		return generationWorker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Scheduler.AsyncWorkers,
		BufferSize: cfg.Scheduler.AsyncQueueSize,
		Logger:     logr,
	})

	generationSvc := service.NewGenerationService(
		teacherRepo,
		classRepo,
		roomRepo,
		configRepo,
		constraintRepo,
		studentRepo,
		englishRepo,
		generationRepo,
		cacheRepo,
		queue,
		metricsSvc,
		nil,
		logr,
		service.GenerationConfig{
			LoadTimeout:           cfg.Scheduler.LoadTimeout,
			EnglishSessionMinutes: cfg.Scheduler.EnglishSessionMinutes,
			ResultCacheTTL:        cfg.Scheduler.ResultCacheTTL,
		},
	)
	generationWorker = service.NewGenerationWorker(generationSvc, logr)

	queue.Start(context.Background())
	defer queue.Stop()

	exportSvc := service.NewExportService(generationSvc, cfg.Exports.MaxRows, logr)

	generationHandler := handler.NewGenerationHandler(generationSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		generations := api.Group("/schedule/generations")
		generations.POST("", generationHandler.Generate)
		generations.POST("/async", generationHandler.GenerateAsync)
		generations.GET("", generationHandler.List)
		generations.GET("/:id", generationHandler.Get)
		generations.GET("/:id/entries", generationHandler.Entries)
		if cfg.Exports.Enabled {
			generations.GET("/:id/export", generationHandler.Export)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
