package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/advisor"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/cache"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/docstore"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/handler"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/outbox"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/config"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// infra holds the external connections a process opened, so they can be
// checked by the readiness probe and closed on shutdown.
type infra struct {
	store   ports.DocumentStore
	db      *sql.DB
	redis   *redis.Client
	events  ports.PatientEventPublisher
	tokens  ports.TokenStore
	checks  map[string]handler.Pinger
	closers []func()
}

func (in *infra) Close() {
	for i := len(in.closers) - 1; i >= 0; i-- {
		in.closers[i]()
	}
}

func newLogger(env, level string) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if env == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return logger.Level(lvl)
}

func openInfra(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*infra, error) {
	in := &infra{checks: make(map[string]handler.Pinger)}

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		in.db = db
		in.closers = append(in.closers, func() { db.Close() })
		in.checks["database"] = handler.PingFunc(db.PingContext)
	}

	switch cfg.StoreBackend {
	case config.BackendMongo:
		store, err := docstore.NewMongoStore(ctx, cfg.MongoURI, cfg.DatabaseName, config.NewCircuitBreaker(config.BreakerMongo))
		if err != nil {
			in.Close()
			return nil, fmt.Errorf("connect to mongodb: %w", err)
		}
		in.store = store
		in.closers = append(in.closers, func() { _ = store.Close(context.Background()) })
		logger.Info().Str("database", cfg.DatabaseName).Msg("using MongoDB document store")
	case config.BackendPostgres:
		store := docstore.NewPostgresStore(in.db, config.NewCircuitBreaker(config.BreakerPostgres))
		if err := store.EnsureSchema(ctx); err != nil {
			in.Close()
			return nil, err
		}
		in.store = store
		logger.Info().Msg("using PostgreSQL document store")
	default:
		in.store = docstore.NewMemoryStore()
		logger.Warn().Msg("using in-memory document store, data is lost on restart")
	}
	in.checks["store"] = in.store

	if in.db != nil {
		if err := outbox.EnsureSchema(ctx, in.db); err != nil {
			in.Close()
			return nil, err
		}
		in.events = outbox.NewWriter(in.db, config.NewCircuitBreaker(config.BreakerPostgres))
		logger.Info().Msg("lifecycle events are written to the outbox")
	} else {
		logger.Warn().Msg("DB_CONNECTION_STRING not set, lifecycle events are not recorded")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			in.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info().Str("addr", cfg.RedisAddr).Msg("connected to Redis")

		in.redis = client
		in.tokens = cache.NewTokenBlacklist(client, config.NewCircuitBreaker(config.BreakerRedis))
		in.closers = append(in.closers, func() { client.Close() })
		in.checks["redis"] = handler.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, logout cannot revoke tokens")
	}

	return in, nil
}

// advisoryClient builds the generative text client, with a medication cache
// in front of it when Redis is available.
func advisoryClient(cfg *config.Config, in *infra, logger zerolog.Logger) ports.AdvisoryClient {
	var client ports.AdvisoryClient = advisor.NewGeminiClient(
		cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel, cfg.AITimeout,
		config.NewCircuitBreaker(config.BreakerAdvisory),
	)
	if cfg.AIAPIKey == "" {
		logger.Warn().Msg("AI_API_KEY not set, diagnosis suggestions are unavailable")
	}
	if in.redis != nil {
		client = advisor.NewCachedClient(client, cache.NewTextCache(in.redis, "medication:", cfg.MedicationCacheTTL), logger)
	}
	return client
}
