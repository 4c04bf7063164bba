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

	_ "github.com/kairos-app/kairos-api/api/swagger"
	"github.com/kairos-app/kairos-api/internal/handler"
	"github.com/kairos-app/kairos-api/internal/middleware"
	"github.com/kairos-app/kairos-api/internal/repository"
	"github.com/kairos-app/kairos-api/internal/service"
	"github.com/kairos-app/kairos-api/pkg/cache"
	"github.com/kairos-app/kairos-api/pkg/config"
	"github.com/kairos-app/kairos-api/pkg/database"
	"github.com/kairos-app/kairos-api/pkg/jobs"
	"github.com/kairos-app/kairos-api/pkg/logger"
	corsmiddleware "github.com/kairos-app/kairos-api/pkg/middleware/cors"
	reqidmiddleware "github.com/kairos-app/kairos-api/pkg/middleware/requestid"
	"github.com/kairos-app/kairos-api/pkg/storage"
)

// @title Kairos API
// @version 1.0.0
// @description Timezone-aware group availability service
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

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr, redisClient != nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	invalidateQueue := jobs.NewQueue("availability-invalidate", func(ctx context.Context, job jobs.Job) error {
		participantID, ok := job.Payload.(string)
		if !ok || participantID == "" {
			return fmt.Errorf("invalidation job %s carries no participant id", job.ID)
		}
		return cacheSvc.Invalidate(ctx, repository.AvailabilityKeyPattern(participantID))
	}, jobs.QueueConfig{Workers: cfg.Availability.InvalidateWorkers, Logger: logr})
	invalidateQueue.Start(ctx)
	defer invalidateQueue.Stop()

	userRepo := repository.NewUserRepository(db)
	ruleRepo := repository.NewAvailabilityRuleRepository(db)

	validate := validator.New()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	ruleSvc := service.NewRuleService(ruleRepo, invalidateQueue, validate, logr)
	availSvc := service.NewAvailabilityService(ruleRepo, cacheSvc, service.AvailabilityConfig{
		CacheTTL:      cfg.Availability.CacheTTL,
		MaxWindowDays: cfg.Availability.MaxWindowDays,
	}, logr)

	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	exportSvc := service.NewExportService(availSvc, store, signer, service.ExportConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
	}, logr, nil, nil)
	exportSvc.StartCleanup(ctx)

	authHandler := handler.NewAuthHandler(authSvc)
	ruleHandler := handler.NewRuleHandler(ruleSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availSvc, exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	authProtected := api.Group("/auth", middleware.JWT(authSvc))
	authProtected.POST("/logout", authHandler.Logout)
	authProtected.POST("/change-password", authHandler.ChangePassword)
	authProtected.GET("/me", authHandler.Me)

	me := api.Group("/me", middleware.JWT(authSvc))
	me.GET("/rules", ruleHandler.List)
	me.POST("/rules", ruleHandler.Create)
	me.GET("/rules/:id", ruleHandler.Get)
	me.PUT("/rules/:id", ruleHandler.Update)
	me.DELETE("/rules/:id", ruleHandler.Delete)

	protected := api.Group("", middleware.JWT(authSvc))
	protected.GET("/participants/:id/availability", availabilityHandler.GetParticipant)
	protected.GET("/participants/:id/availability/export", availabilityHandler.Export)
	protected.GET("/availability/group", availabilityHandler.GetGroup)

	// Downloads authenticate through the signed token itself.
	api.GET("/downloads/:token", availabilityHandler.Download)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
