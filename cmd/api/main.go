package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"recipe-blog/internal/cache"
	"recipe-blog/internal/config"
	"recipe-blog/internal/db"
	apihttp "recipe-blog/internal/http"
	"recipe-blog/internal/repository"
	"recipe-blog/internal/service"
)

func main() {
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	// Un fallo al preparar el esquema se loguea pero no impide levantar el servidor.
	if err := db.Ping(ctx, pool); err != nil {
		logger.Warn("db ping failed", zap.Error(err))
	} else if err := db.Migrate(cfg.DatabaseURL()); err != nil {
		logger.Error("db migrate", zap.Error(err))
	}

	var ratingsCache cache.RatingsCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed", zap.Error(err))
		} else {
			ratingsCache = cache.NewRedisRatingsCache(redisClient)
		}
		cancel()
	}

	userRepo := repository.NewPgUserRepository(pool)
	ratingRepo := repository.NewPgRatingRepository(pool)
	historyRepo := repository.NewPgLoginHistoryRepository(pool)

	tokenSvc := service.NewTokenService(cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour)
	authSvc := service.NewAuthService(logger, userRepo, historyRepo)
	ratingSvc := service.NewRatingService(logger, ratingRepo, ratingsCache)

	authHandler := apihttp.NewAuthHandler(logger, authSvc, tokenSvc)
	ratingHandler := apihttp.NewRatingHandler(logger, ratingSvc)
	router := apihttp.NewRouter(logger, cfg, tokenSvc, authHandler, ratingHandler)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("starting server", zap.String("port", cfg.HTTPPort))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}
