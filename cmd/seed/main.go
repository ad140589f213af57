package main

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"boozstudio/internal/config"
	"boozstudio/internal/database"
	"boozstudio/internal/domain"
	"boozstudio/internal/modules/catalog"
	"boozstudio/internal/pkg/logger"
	"boozstudio/internal/repository"
)

const (
	seedPassword = "booz123"
	seedCredits  = 9999
)

type seedAccount struct {
	email string
	name  string
	role  domain.Role
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Pretty: true})
		boot.Fatal().Err(err).Msg("config")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: true})

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal().Err(err).Msg("database connect failed")
	}
	log.Info().Msg("running AutoMigrate")
	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("database migrate failed")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}

	accounts := repository.NewAccountRepository(db)
	for _, a := range []seedAccount{
		{"admin@booz.com", "Admin", domain.RoleAdmin},
		{"coach@booz.com", "Coach", domain.RoleCoach},
		{"cliente@booz.com", "Cliente", domain.RoleClient},
	} {
		exists, err := accounts.ExistsByEmail(ctx, a.email)
		if err != nil {
			log.Fatal().Err(err).Msg("check account")
		}
		if exists {
			log.Info().Str("email", a.email).Msg("account already present")
			continue
		}
		err = accounts.Create(ctx, &domain.Account{
			Email:         a.email,
			PasswordHash:  string(hash),
			Role:          a.role,
			Name:          a.name,
			CreditBalance: seedCredits,
		})
		if err != nil {
			log.Fatal().Err(err).Str("email", a.email).Msg("create account")
		}
		log.Info().Str("email", a.email).Str("role", string(a.role)).Msgf("account created, password %s", seedPassword)
	}

	loc := cfg.Location()
	cat := catalog.NewService(repository.NewSessionRepository(db), cfg.Pricing(), loc, log)
	start := time.Now().In(loc).AddDate(0, 0, 1).Format(domain.DateLayout)

	patterns := []catalog.RecurringPattern{
		{Name: "Reformer", Topic: "Core", PackageRef: "LMV", Hour: "07:00", StartDate: start, Seats: 8},
		{Name: "Reformer", Topic: "Full body", PackageRef: "LMV", Hour: "18:00", StartDate: start, Seats: 8},
		{Name: "Barre", Topic: "Piernas", PackageRef: "MJ", Hour: "08:00", StartDate: start, Seats: 8, Color: "#F5B7D2"},
		{Name: "Clase muestra", Topic: "Intro", PackageRef: "MJ", Hour: "16:00", StartDate: start, Seats: 5, Color: "#C7F0C2"},
	}
	for _, p := range patterns {
		n, err := cat.CreateRecurringSessions(ctx, p)
		if err != nil {
			log.Fatal().Err(err).Str("name", p.Name).Msg("create recurring sessions")
		}
		log.Info().Str("name", p.Name).Str("hour", p.Hour).Int64("created", n).Msg("pattern seeded")
	}

	log.Info().Msg("seed completed")
}
