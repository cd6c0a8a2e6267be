package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/wayfarer-app/wayfarer/internal/app"
	"github.com/wayfarer-app/wayfarer/internal/auth"
	"github.com/wayfarer-app/wayfarer/internal/bookings"
	"github.com/wayfarer-app/wayfarer/internal/observability"
	"github.com/wayfarer-app/wayfarer/internal/payments"
	"github.com/wayfarer-app/wayfarer/internal/platform/db"
	"github.com/wayfarer-app/wayfarer/internal/reviews"
	"github.com/wayfarer-app/wayfarer/internal/tours"
	"github.com/wayfarer-app/wayfarer/internal/users"
	"github.com/wayfarer-app/wayfarer/internal/web"
	"github.com/wayfarer-app/wayfarer/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	dispatcher := jobs.NewDispatcher(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := dispatcher.Close(); err != nil {
			logger.Warn("dispatcher close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiresIn, cfg.JWTIssuer)
	authRepo := auth.NewRepository(pool)
	authService := auth.NewService(authRepo, tokens, dispatcher, logger, cfg.ResetTokenTTL)
	authMiddleware := auth.Middleware{Tokens: tokens, Service: authService, Logger: logger, Failures: metrics}
	authHandler := auth.NewHandler(logger, authService, auth.HandlerConfig{
		CookieTTL:     cfg.JWTCookieTTL,
		SecureCookie:  cfg.IsProduction(),
		PublicBaseURL: cfg.PublicBaseURL,
	})

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	toursRepo := tours.NewRepository(pool)
	toursCache := tours.NewCache(redisClient, cfg.AggregateCacheTTL)
	toursService := tours.NewService(toursRepo, toursCache, logger)
	toursHandler := tours.NewHandler(logger, toursService)

	reviewsRepo := reviews.NewRepository(pool)
	reviewsService := reviews.NewService(reviewsRepo, logger)
	reviewsHandler := reviews.NewHandler(logger, reviewsService)

	paymentsClient := payments.NewClient(cfg.PaymentAPIURL, cfg.PaymentAPIKey, cfg.PaymentWebhookSecret)
	bookingsRepo := bookings.NewRepository(pool)
	bookingsService := bookings.NewService(bookingsRepo, toursService, paymentsClient, authRepo, dispatcher, logger, cfg.PublicBaseURL)
	bookingsHandler := bookings.NewHandler(logger, bookingsService, paymentsClient)

	webHandler := web.NewHandler(logger, toursService, reviewsService, bookingsService, authService, cfg.JWTCookieTTL, cfg.IsProduction())

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		AuthMiddleware:  authMiddleware,
		AuthHandler:     authHandler,
		UsersHandler:    usersHandler,
		ToursHandler:    toursHandler,
		ReviewsHandler:  reviewsHandler,
		BookingsHandler: bookingsHandler,
		WebHandler:      webHandler,
		JobHandler:      jobHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
