package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/pinpost/backend/internal/router"
	"github.com/anonto42/pinpost/backend/internal/services"
	"github.com/anonto42/pinpost/backend/pkg/blob"
	"github.com/anonto42/pinpost/backend/pkg/config"
	"github.com/anonto42/pinpost/backend/pkg/firebase"
	"github.com/anonto42/pinpost/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

// run owns every resource it opens, so deferred cleanup happens on each
// error path before main exits.
func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	config.SetupLogger(cfg.Server.LogLevel, cfg.IsProduction())

	ownership, err := services.ParseOwnershipPolicy(cfg.Auth.PostOwnership)
	if err != nil {
		return fmt.Errorf("invalid POST_OWNERSHIP: %w", err)
	}

	// Initialize database connections
	db, err := config.InitDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}
	defer db.CloseDB()

	ctx := context.Background()
	opts := router.Options{
		TokenSecret:  cfg.Auth.AccessTokenSecret,
		TokenTTL:     cfg.Auth.TokenTTL,
		BcryptCost:   cfg.Auth.BcryptCost,
		Ownership:    ownership,
		SecureCookie: cfg.IsProduction(),
	}

	// Image store
	var images blob.Store
	switch cfg.Blob.Driver {
	case config.BlobDriverGridFS:
		store, err := blob.NewGridFSStore(db.Mongo.Database(cfg.Database.MongoDatabase), cfg.Server.PublicBaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize GridFS image store: %w", err)
		}
		images = store
		opts.ImageSource = store
	default:
		store, err := blob.NewS3Store(ctx, blob.S3Config{
			Region:    cfg.Blob.S3Region,
			Bucket:    cfg.Blob.S3Bucket,
			Endpoint:  cfg.Blob.S3Endpoint,
			AccessKey: cfg.Blob.S3AccessKey,
			SecretKey: cfg.Blob.S3SecretKey,
			PublicURL: cfg.Blob.S3PublicURL,
			Prefix:    "images/",
		})
		if err != nil {
			return fmt.Errorf("failed to initialize S3 image store: %w", err)
		}
		images = store
	}
	log.Info().Str("driver", cfg.Blob.Driver).Msg("Image store ready")

	// Firebase login is optional
	if cfg.Auth.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.Auth.FirebaseCredentialsPath)
		if err != nil {
			return fmt.Errorf("failed to initialize Firebase: %w", err)
		}
		opts.Verifier = firebase.NewVerifier(firebaseApp)
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()

	router.SetupMiddleware(e, cfg.Server.RequestTimeout)
	if err := router.SetupRoutes(e, db.Postgres, images, opts); err != nil {
		return fmt.Errorf("failed to set up routes: %w", err)
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("env", cfg.Server.Env).Msg("Starting server")
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}
