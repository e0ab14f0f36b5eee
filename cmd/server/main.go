package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/api"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/api/middleware"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/chat"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/config"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/handlers"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/realtime"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/scheduler"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/store"
	"github.com/GnanaPrakashNarayana/Real-Time-Chat-Application-sub000/internal/token"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	var logger zerolog.Logger
	if cfg.IsDevelopment() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	ctx := context.Background()

	// Initialize the message store: PostgreSQL when configured, SQLite
	// otherwise
	var db store.DataStore
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("postgres connection failed")
		}
		db = pg
		logger.Info().Msg("connected to PostgreSQL")
	} else {
		sq, err := store.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			logger.Fatal().Err(err).Msg("sqlite open failed")
		}
		db = sq
		logger.Info().Str("path", cfg.SQLitePath).Msg("using SQLite")
	}
	defer db.Close()

	// Initialize Redis (rate limiting only; optional)
	var redisStore *store.RedisStore
	if cfg.RedisURL != "" {
		var err error
		redisStore, err = store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis connection failed")
		}
		defer redisStore.Close()
		logger.Info().Msg("connected to Redis")
	}

	// Wire the realtime core
	verifier := token.NewVerifier(cfg.JWTSecret)
	registry := realtime.NewRegistry()
	notifier := realtime.NewNotifier(registry, logger)
	chatSvc := chat.NewService(db, notifier, logger)
	gateway := realtime.NewGateway(registry, notifier, db, verifier, chatSvc, logger)

	// Scheduled message dispatch
	dispatcher := scheduler.New(db, notifier, logger, cfg.SchedulerInterval)
	dispatcher.CatchUp(ctx)
	if err := dispatcher.Start(); err != nil {
		logger.Fatal().Err(err).Msg("failed to start dispatch loop")
	}
	defer dispatcher.Stop()

	// HTTP surface
	h := handlers.NewHandler(db, chatSvc, dispatcher, redisStore)
	auth := middleware.NewAuthMiddleware(db, verifier)

	var limiter *middleware.RateLimiter
	if redisStore != nil {
		limiter = middleware.NewRateLimiter(redisStore, logger, middleware.RateLimiterConfig{
			Whitelist: cfg.RateLimitWhitelist,
		})
	}

	router := api.NewRouter(api.Deps{
		Logger:  logger,
		Handler: h,
		Gateway: gateway,
		Auth:    auth,
		Limiter: limiter,
	})

	// Create server. No WriteTimeout: websocket connections are
	// long-lived and manage their own write deadlines.
	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Env).
			Msg("starting chat server")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	// Graceful shutdown with 30 second timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server stopped")
}
