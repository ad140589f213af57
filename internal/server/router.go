// Package server assembles the HTTP API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"boozstudio/internal/config"
	"boozstudio/internal/middleware"
	"boozstudio/internal/modules/auth"
	"boozstudio/internal/modules/booking"
	"boozstudio/internal/modules/catalog"
	"boozstudio/internal/modules/ledger"
	"boozstudio/internal/modules/sales"
	"boozstudio/internal/pkg/jwt"
	"boozstudio/internal/repository"
)

// Deps are the process-wide collaborators of the API. Publisher and
// Idempotency are optional.
type Deps struct {
	DB          *gorm.DB
	Config      *config.Config
	JWT         *jwt.Service
	Publisher   booking.EventPublisher
	Idempotency booking.IdempotencyStore
	Log         zerolog.Logger
}

// Services exposes the wired services so callers can tune them (tests fix the clock).
type Services struct {
	Catalog *catalog.Service
	Ledger  *ledger.Service
	Booking *booking.Service
	Sales   *sales.Service
	Auth    *auth.Service
}

func New(d Deps) (*gin.Engine, *Services) {
	cfg := d.Config
	policy := cfg.Pricing()
	loc := cfg.Location()

	accountRepo := repository.NewAccountRepository(d.DB)
	sessionRepo := repository.NewSessionRepository(d.DB)

	svc := &Services{
		Catalog: catalog.NewService(sessionRepo, policy, loc, d.Log.With().Str("module", "catalog").Logger()),
		Ledger:  ledger.NewService(d.DB, policy, d.Log.With().Str("module", "ledger").Logger()),
		Sales:   sales.NewService(sessionRepo, policy, d.Log.With().Str("module", "sales").Logger()),
		Auth:    auth.NewService(accountRepo, d.JWT, d.Log.With().Str("module", "auth").Logger()),
	}
	svc.Booking = booking.NewService(d.DB, svc.Ledger, policy, d.Publisher, loc, d.Log.With().Str("module", "booking").Logger())

	authHandler := auth.NewHandler(svc.Auth)
	catalogHandler := catalog.NewHandler(svc.Catalog)
	ledgerHandler := ledger.NewHandler(svc.Ledger)
	bookingHandler := booking.NewHandler(svc.Booking, d.Idempotency, d.Log.With().Str("module", "booking").Logger())
	salesHandler := sales.NewHandler(svc.Sales)

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Log))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)
		catalogHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(d.JWT))
		{
			authHandler.RegisterProtectedRoutes(protected)
			ledgerHandler.RegisterRoutes(protected)

			limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
			bookingHandler.RegisterRoutes(protected.Group("", limiter.Middleware(d.Log)))

			staff := protected.Group("", middleware.StaffOnly())
			catalogHandler.RegisterStaffRoutes(staff)
			ledgerHandler.RegisterStaffRoutes(staff)

			admin := protected.Group("", middleware.AdminOnly())
			catalogHandler.RegisterAdminRoutes(admin)
			ledgerHandler.RegisterAdminRoutes(admin)
			salesHandler.RegisterAdminRoutes(admin)
		}
	}

	return r, svc
}
