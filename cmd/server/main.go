package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"RescueHub/internal/handler"
	"RescueHub/internal/models"
	"RescueHub/pkg/ai"
	"RescueHub/pkg/auth"
	"RescueHub/pkg/cache"
	"RescueHub/pkg/config"
	"RescueHub/pkg/database"
	"RescueHub/pkg/logger"
	"RescueHub/pkg/metrics"
	"RescueHub/pkg/middleware"
	"RescueHub/pkg/notification"
	"RescueHub/pkg/scheduler"
	"RescueHub/pkg/storage"
	"RescueHub/pkg/websocket"
)

func main() {
	if err := config.Load(); err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	cfg := config.GlobalConfig

	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := database.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Errorf("open database: %v", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Errorf("migrate: %v", err)
		os.Exit(1)
	}

	resultCache, err := cache.NewCache(cache.Config{
		Type: cfg.CacheType,
		Redis: cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       int(cfg.RedisDB),
		},
	})
	if err != nil {
		logger.Warnf("cache unavailable, falling back to local: %v", err)
		resultCache, _ = cache.NewCache(cache.Config{Type: "local"})
	}
	defer resultCache.Close()

	hub := websocket.NewHub()
	go hub.Run()

	notifier := notification.New(db, hub)
	aiService := ai.NewService(buildProvider(cfg), resultCache)

	var media *storage.MediaStore
	if cfg.MinioEndpoint != "" {
		media = &storage.MediaStore{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			BaseURL:   cfg.MinioPublicURL,
		}
	}

	tokens := auth.NewTokenManager(cfg.JWTSecret,
		time.Duration(cfg.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour)

	limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       cfg.RateLimit,
		Identifier: "ip",
		AddHeaders: true,
		SkipPaths:  []string{"/metrics", "/health", "/ws/"},
	}, nil)

	cron := scheduler.New()
	retention := time.Duration(cfg.NotificationRetentionDays) * 24 * time.Hour
	err = cron.AddJob(cfg.CleanupSchedule, "notification-cleanup", func() error {
		purged, err := models.PurgeReadNotifications(db, time.Now().Add(-retention))
		if err != nil {
			return err
		}
		if purged > 0 {
			logger.Infof("purged %d read notifications", purged)
		}
		return nil
	})
	if err != nil {
		logger.Errorf("schedule cleanup: %v", err)
		os.Exit(1)
	}
	cron.Start()
	defer cron.Stop()

	gin.SetMode(cfg.Mode)
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.CORS(), metrics.Middleware(), limiter.Middleware())

	h := handler.New(db, tokens, hub, notifier, aiService, media, limiter)
	h.Register(engine)

	srv := &http.Server{Addr: cfg.Addr, Handler: engine}
	go func() {
		logger.Infof("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("server: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}

// buildProvider selects the configured LLM backend.
func buildProvider(cfg *config.Config) ai.Provider {
	switch cfg.AIProvider {
	case "gigachat":
		return ai.NewGigaChatProvider(ai.GigaChatConfig{
			AuthKey: cfg.GigaChatAuthKey,
			BaseURL: cfg.GigaChatBaseURL,
			AuthURL: cfg.GigaChatAuthURL,
			Scope:   cfg.GigaChatScope,
		})
	case "yandex":
		return ai.NewYandexProvider(cfg.YandexAPIKey, cfg.YandexFolderID, cfg.YandexModel, "")
	default:
		return ai.NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.OpenAIBase, cfg.OpenAIModel)
	}
}
