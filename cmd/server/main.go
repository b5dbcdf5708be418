package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Ayash-Bera/reelscout/internal/api/handlers"
	"github.com/Ayash-Bera/reelscout/internal/config"
	"github.com/Ayash-Bera/reelscout/internal/database"
	"github.com/Ayash-Bera/reelscout/internal/health"
	"github.com/Ayash-Bera/reelscout/internal/middleware"
	"github.com/Ayash-Bera/reelscout/internal/models"
	"github.com/Ayash-Bera/reelscout/internal/posters"
	"github.com/Ayash-Bera/reelscout/internal/recommender"
	"github.com/Ayash-Bera/reelscout/internal/repository"
	"github.com/Ayash-Bera/reelscout/internal/services"
	"github.com/Ayash-Bera/reelscout/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const healthInterval = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    cfg.Log.Level,
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := dbManager.Migrate(); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	var repoManager *repository.RepositoryManager
	if dbManager.DB != nil {
		repoManager = repository.NewRepositoryManager(dbManager.DB)
	}

	var backend recommender.Backend = recommender.NewClient(
		cfg.API.BaseURL,
		&http.Client{Timeout: cfg.API.Timeout},
		logger,
	)
	if dbManager.Redis != nil {
		cache := database.NewCache(dbManager.Redis, logger)
		backend = recommender.NewCachedBackend(backend, cache, cfg.Cache.TTL, logger)
	}

	var healthRepo models.SystemHealthRepository
	if repoManager != nil {
		healthRepo = repoManager.SystemHealth
	}
	checker := health.NewHealthChecker(backend, dbManager, healthRepo, logger)
	resolver := posters.NewResolver(posters.Config{
		APIKey:         cfg.TMDB.APIKey,
		BaseURL:        cfg.TMDB.BaseURL,
		ImageBaseURL:   cfg.TMDB.ImageBaseURL,
		PlaceholderURL: cfg.TMDB.PlaceholderURL,
	}, nil, logger)
	if !cfg.PostersEnabled() {
		logger.Info("TMDB API key not set, poster lookup disabled")
	}
	service := services.NewRecommendationService(backend, resolver, repoManager, logger)
	handler := handlers.NewRecommendHandler(service, checker, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go checker.PeriodicHealthCheck(ctx, healthInterval)

	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit)
	go limiter.Cleanup(ctx.Done(), time.Minute)

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.CORS(),
		requestLogger(logger),
	)

	api := router.Group("/api")
	api.Use(limiter.RateLimit())
	handler.Register(api)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":      cfg.Server.Port,
			"backend":   cfg.API.BaseURL,
			"cache":     cfg.CacheEnabled(),
			"analytics": cfg.AnalyticsEnabled(),
		}).Info("Starting gateway")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down gateway...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logrus.Fields{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"request_id": c.GetString("request_id"),
			"client_ip":  c.ClientIP(),
		}).Info("Request handled")
	}
}
