package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/schedule-hub/timetable-api/api/swagger"
	internalhandler "github.com/schedule-hub/timetable-api/internal/handler"
	internalmiddleware "github.com/schedule-hub/timetable-api/internal/middleware"
	"github.com/schedule-hub/timetable-api/internal/repository"
	"github.com/schedule-hub/timetable-api/internal/service"
	"github.com/schedule-hub/timetable-api/pkg/cache"
	"github.com/schedule-hub/timetable-api/pkg/config"
	"github.com/schedule-hub/timetable-api/pkg/database"
	"github.com/schedule-hub/timetable-api/pkg/logger"
	corsmiddleware "github.com/schedule-hub/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/schedule-hub/timetable-api/pkg/middleware/requestid"
)

// @title Schedule Hub Timetable API
// @version 1.0.0
// @description Constraint-based weekly timetable generation service
// @BasePath /
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

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise database", "error", err)
	}
	defer db.Close()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	var cacheSvc *service.CacheService
	if cfg.Solver.CacheEnabled {
		if client, err := cache.NewRedis(cfg.Redis); err != nil {
			logr.Sugar().Warnw("generation cache disabled", "error", err)
		} else {
			defer client.Close()
			cacheRepo := repository.NewCacheRepository(client, logr)
			cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Solver.CacheTTL, logr, true)
		}
	}

	timetableRepo := repository.NewTimetableRepository(db)
	timetableSvc := service.NewTimetableService(
		timetableRepo,
		db,
		cacheSvc,
		metricsSvc,
		nil,
		logr,
		service.TimetableServiceConfig{
			MaxRunTime:    cfg.Solver.MaxRunTime,
			GenerationTTL: cfg.Solver.GenerationTTL,
			CacheTTL:      cfg.Solver.CacheTTL,
		},
	)
	timetableHandler := internalhandler.NewTimetableHandler(timetableSvc)

	api := r.Group(cfg.APIPrefix)
	api.POST("/timetables/generate", timetableHandler.Generate)
	api.GET("/timetables", timetableHandler.List)
	api.GET("/timetables/:id/details", timetableHandler.Details)
	api.GET("/timetables/:id/export", timetableHandler.Export)

	secured := api.Group("")
	secured.Use(internalmiddleware.Auth(cfg.Auth.Secret, cfg.Auth.Enabled))
	secured.POST("/timetables/save", timetableHandler.Save)
	secured.DELETE("/timetables/:id", timetableHandler.Delete)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
