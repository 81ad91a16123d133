package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

const (
	BreakerRedis    = "Redis-Auth"
	BreakerPostgres = "PostgreSQL"
	BreakerMongo    = "MongoDB"
	BreakerRelayDB  = "Relay-PostgreSQL"
	BreakerAdvisory = "AI-Service"
	BreakerRabbitMQ = "RabbitMQ-Publisher"
)

// NewCircuitBreaker creates a circuit breaker with standard settings.
// The name parameter uniquely identifies the circuit breaker instance.
func NewCircuitBreaker(name string) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Second * 10,
		Timeout:     breakerTimeout(name),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
}

// breakerTimeout is how long a breaker stays open. It lines up with the
// 5s readiness probe for Redis.
func breakerTimeout(name string) time.Duration {
	switch name {
	case BreakerRedis:
		return 5 * time.Second
	case BreakerPostgres, BreakerMongo, BreakerRelayDB:
		return 10 * time.Second
	case BreakerAdvisory:
		return 20 * time.Second
	default:
		return 30 * time.Second
	}
}
