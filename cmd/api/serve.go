package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/handler"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/metrics"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/middleware"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/repository"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/config"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/lifecycle"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/roster"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/services"
)

const (
	notificationCapacity = 100
	shutdownTimeout      = 10 * time.Second
)

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		logger := newLogger(os.Getenv("ENV"), "info")
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)

	ctx := context.Background()
	in, err := openInfra(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialise infrastructure")
	}
	defer in.Close()

	m := metrics.New()
	feed := roster.NewFeed(notificationCapacity)

	opts := []roster.Option{
		roster.WithNotifier(feed),
		roster.WithMetrics(m),
		roster.WithLogger(logger.With().Str("component", "roster").Logger()),
		roster.WithWriteTimeout(cfg.WriteTimeout),
	}
	if in.events != nil {
		opts = append(opts, roster.WithEvents(in.events))
	}
	patients := roster.New(repository.NewPatientRepository(in.store), lifecycle.NewEngine(nil), opts...)
	if err := patients.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("starting with an empty patient list")
	}

	accounts := services.NewAccountService(repository.NewUserRepository(in.store))
	auth := services.NewAuthService(accounts, in.tokens, cfg.JWTPrivateKey, cfg.TokenTTL)
	advisory := services.NewAdvisoryService(patients, advisoryClient(cfg, in, logger), logger)

	mux := handler.NewRouter(handler.Handlers{
		Auth:          handler.NewAuthHandler(auth, accounts),
		Patients:      handler.NewPatientHandler(patients, advisory),
		Users:         handler.NewUserHandler(accounts),
		Notifications: handler.NewNotificationHandler(feed),
		Health:        handler.NewHealthHandler(in.checks),
	}, middleware.NewAuthMiddleware(cfg.JWTPublicKey, in.tokens, logger), m)

	var h http.Handler = mux
	h = middleware.CORSMiddleware(cfg.CORSOrigins)(h)
	h = middleware.RequestLogger(logger)(h)
	h = middleware.Recovery(logger)(h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("backend", cfg.StoreBackend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	case err := <-errChan:
		logger.Error().Err(err).Msg("server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	// Let queued patient writes reach the store before the connections close.
	patients.Wait()
	logger.Info().Msg("server stopped")
	return nil
}
