package router

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/anonto42/pinpost/backend/internal/handlers"
	"github.com/anonto42/pinpost/backend/internal/middleware"
	"github.com/anonto42/pinpost/backend/internal/repositories"
	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/anonto42/pinpost/backend/pkg/blob"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Options carries the settings SetupRoutes needs beyond its stores.
type Options struct {
	TokenSecret  string
	TokenTTL     time.Duration
	BcryptCost   int
	Ownership    services.OwnershipPolicy
	SecureCookie bool

	// Verifier enables POST /api/auth/firebase-login when set.
	Verifier services.IdentityVerifier
	// ImageSource serves GET /images/:id when images live in the database.
	ImageSource handlers.ImageSource
	// Rand seeds recommendation sampling; nil draws a random seed.
	Rand *rand.Rand
}

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, requestTimeout time.Duration) {
	e.HTTPErrorHandler = HTTPErrorHandler
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.RequestID())
	e.Use(eMiddleware.RequestLoggerWithConfig(eMiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v eMiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))
	e.Use(eMiddleware.CORS())
	if requestTimeout > 0 {
		e.Use(eMiddleware.ContextTimeout(requestTimeout))
	}
	log.Debug().Msg("Global middleware configured.")
}

// SetupRoutes migrates the schema, wires repositories, services and handlers,
// and mounts every route.
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, images blob.Store, opts Options) error {
	if err := repositories.AutoMigrate(pgdb); err != nil {
		return fmt.Errorf("failed to auto migrate models: %w", err)
	}
	log.Debug().Msg("Auto-migrations completed.")

	// --- Initialize Repositories ---
	userRepo := repositories.NewPostgresUserRepository(pgdb)
	postRepo := repositories.NewPostgresPostRepository(pgdb)

	// --- Initialize Services ---
	tokens := services.NewTokenService(opts.TokenSecret, opts.TokenTTL)
	authService := services.NewAuthService(userRepo, tokens, images, opts.BcryptCost)
	if opts.Verifier != nil {
		authService.WithIdentityVerifier(opts.Verifier)
	}
	postService := services.NewPostService(postRepo, images, opts.Ownership, opts.Rand)

	// Protected routes attach this per route so that unknown paths under
	// /api still answer 404 instead of 401.
	requireAuth := middleware.JWTAuthMiddleware(tokens)

	e.GET("/health", handlers.NewHealthHandler(pgdb).HealthCheck)
	if opts.ImageSource != nil {
		handlers.NewImageHandler(opts.ImageSource).RegisterImageRoutes(e.Group(""))
	}

	api := e.Group("/api")

	authHandler := handlers.NewAuthHandler(authService, opts.SecureCookie)
	authHandler.RegisterAuthRoutes(api, requireAuth)

	userHandler := handlers.NewUserHandler()
	userHandler.RegisterProfileRoutes(api, requireAuth)

	postHandler := handlers.NewPostHandler(postService)
	postHandler.RegisterPostRoutes(api, requireAuth)

	feedHandler := handlers.NewFeedHandler(postService)
	feedHandler.RegisterFeedRoutes(api, requireAuth)

	likeHandler := handlers.NewLikeHandler(postService)
	likeHandler.RegisterLikeRoutes(api, requireAuth)

	log.Debug().Msg("All routes configured.")
	return nil
}

// HTTPErrorHandler renders every error as JSON. Unmatched routes answer
// 404 {"message": "request <METHOD> <PATH> not found"}.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	switch {
	case errors.Is(err, echo.ErrNotFound), errors.Is(err, echo.ErrMethodNotAllowed):
		req := c.Request()
		he = echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("request %s %s not found", req.Method, req.URL.Path))
	case errors.As(err, &he):
	default:
		he = echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var body interface{}
	switch m := he.Message.(type) {
	case string:
		body = echo.Map{"message": m}
	case echo.Map:
		body = m
	default:
		body = echo.Map{"message": fmt.Sprint(m)}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(he.Code)
	} else {
		err = c.JSON(he.Code, body)
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to write error response")
	}
}
