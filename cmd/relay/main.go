package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/messaging"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/outbox"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/config"
)

const healthAddr = ":8090"

func main() {
	cfg, err := config.LoadRelayConfig()
	if err != nil {
		l := zerolog.New(os.Stdout)
		l.Fatal().Err(err).Msg("relay: failed to load config")
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	logger.Info().Msg("starting outbox relay service")

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("relay: failed to open database")
	}
	defer db.Close()

	if err := outbox.EnsureSchema(context.Background(), db); err != nil {
		logger.Warn().Err(err).Msg("relay: could not ensure outbox schema, the API may not have created it yet")
	}

	broker, err := messaging.NewRabbitMQBroker(cfg.RabbitMQURL, cfg.QueueName)
	if err != nil {
		logger.Fatal().Err(err).Msg("relay: failed to connect to RabbitMQ")
	}
	defer broker.Close()
	logger.Info().Str("queue", cfg.QueueName).Msg("relay: connected to RabbitMQ")

	worker := outbox.NewRelay(db, cfg.DatabaseURL, broker, logger)

	healthServer := &http.Server{
		Addr:              healthAddr,
		Handler:           healthMux(worker),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", healthAddr).Msg("relay: starting health check server")
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("relay: health server error")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		if err := worker.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info().Str("signal", sig.String()).Msg("relay: initiating shutdown")
	case err := <-errChan:
		logger.Error().Err(err).Msg("relay: worker failed, shutting down")
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("relay: error shutting down health server")
	}
	logger.Info().Msg("relay: shutdown complete")
}

type probe interface {
	IsHealthy() bool
	IsReady() bool
}

func healthMux(p probe) *http.ServeMux {
	mux := http.NewServeMux()
	respond := func(w http.ResponseWriter, ok bool) {
		status, code := "UP", http.StatusOK
		if !ok {
			status, code = "DOWN", http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status":    status,
			"component": "outbox-relay",
		})
	}
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) { respond(w, p.IsHealthy()) })
	mux.HandleFunc("GET /health/live", func(w http.ResponseWriter, r *http.Request) { respond(w, p.IsHealthy()) })
	mux.HandleFunc("GET /health/ready", func(w http.ResponseWriter, r *http.Request) { respond(w, p.IsReady()) })
	return mux
}

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "outbox-relay").Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}
