package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"boozstudio/internal/cache"
	"boozstudio/internal/config"
	"boozstudio/internal/database"
	"boozstudio/internal/events"
	"boozstudio/internal/modules/booking"
	jwtsvc "boozstudio/internal/pkg/jwt"
	"boozstudio/internal/pkg/logger"
	"boozstudio/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Pretty: true})
		boot.Fatal().Err(err).Msg("config")
	}

	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProdLike()})
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migrate failed")
	}

	var idem booking.IdempotencyStore
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		defer rdb.Close()

		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, idempotency keys degrade to pass-through")
		}
		cancel()
		idem = cache.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL)
	} else {
		log.Info().Msg("REDIS_ADDR not set, Idempotency-Key handling disabled")
	}

	var publisher booking.EventPublisher = events.Nop{}
	if cfg.RabbitMQ.URL != "" {
		publisher = events.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueuePrefix, log)
	} else {
		log.Info().Msg("RABBITMQ_URL not set, reservation events are not published")
	}

	router, services := server.New(server.Deps{
		DB:          db,
		Config:      cfg,
		JWT:         jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL),
		Publisher:   publisher,
		Idempotency: idem,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.AppEnv).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := services.Booking.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("pending reservation events dropped")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
