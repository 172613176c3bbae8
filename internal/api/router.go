package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/usercore/provisioning-api/internal/api/handler"
	"github.com/usercore/provisioning-api/internal/api/middleware"
	"github.com/usercore/provisioning-api/internal/core/domain"
	"github.com/usercore/provisioning-api/internal/core/service"
	"github.com/usercore/provisioning-api/internal/infrastructure/config"
	mongouser "github.com/usercore/provisioning-api/internal/infrastructure/db/mongo"
	"github.com/usercore/provisioning-api/internal/infrastructure/http/handlers"
	"github.com/usercore/provisioning-api/internal/infrastructure/messaging/redissearch"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("provisioning"))

	// --- Dependencies ---
	userRepo := mongouser.NewUserRepository(db)
	searcher := redissearch.NewSearcher(rdb, redissearch.Config{
		RequestQueue: cfg.Search.RequestQueue,
		Timeout:      cfg.Search.Timeout,
	}, log)
	userService := service.NewUserService(userRepo, searcher, cfg.BcryptCost, log)
	userHandler := handler.NewUserHandler(userService)

	// --- Provisioning routes (admin only) ---
	v1 := e.Group("/v1")
	v1.POST("/users", userHandler.Create,
		middleware.Auth(cfg.JWTSecret),
		middleware.RequireRoles(domain.RoleAdmin),
	)

	// --- Health probes (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
