package main

import (
	"context"
	"time"

	"boozstudio/internal/config"
	"boozstudio/internal/database"
	"boozstudio/internal/pkg/logger"
	"boozstudio/internal/repository"
)

// Clears the subscription flag of plans whose expiry has passed. Meant for a daily cron.
func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Pretty: true})
		boot.Fatal().Err(err).Msg("config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: !cfg.IsProdLike()})

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect failed")
	}

	n, err := repository.NewAccountRepository(db).ExpirePlans(ctx, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("expire plans failed")
	}
	log.Info().Int64("accounts", n).Msg("plan expiry sweep completed")
}
