package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/config"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

const (
	listenerMinReconnectInterval = 10 * time.Second
	listenerMaxReconnectInterval = time.Minute
	outboxChannelName            = "outbox_channel"

	eventProcessTimeout     = 30 * time.Second
	batchProcessTimeout     = 60 * time.Second
	periodicProcessInterval = 90 * time.Second

	healthCheckStaleThreshold = 5 * time.Minute

	maxEventsPerBatch = 100
)

// errSkipped marks an event that was read but not published.
var errSkipped = errors.New("outbox: event skipped")

type record struct {
	ID        string
	EventType string
	Payload   []byte
}

// Relay listens for NOTIFY signals on the outbox channel and forwards the
// stored patient events to the broker.
type Relay struct {
	db        *sql.DB
	publisher ports.PatientEventPublisher
	dbURL     string
	dbCB      *gobreaker.CircuitBreaker
	logger    zerolog.Logger

	mu            sync.RWMutex
	lastProcessed time.Time
	healthy       bool
}

func NewRelay(db *sql.DB, dbURL string, publisher ports.PatientEventPublisher, logger zerolog.Logger) *Relay {
	return &Relay{
		db:            db,
		dbURL:         dbURL,
		publisher:     publisher,
		dbCB:          config.NewCircuitBreaker(config.BreakerRelayDB),
		logger:        logger.With().Str("component", "outbox_relay").Logger(),
		lastProcessed: time.Now(),
		healthy:       true,
	}
}

// IsHealthy is the liveness signal: the process is running and its
// listener is connected.
func (r *Relay) IsHealthy() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.healthy
}

// IsReady also fails while the database breaker is open or nothing has been
// processed for a while.
func (r *Relay) IsReady() bool {
	if r.dbCB.State() == gobreaker.StateOpen {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if time.Since(r.lastProcessed) > healthCheckStaleThreshold {
		return false
	}
	return r.healthy
}

func (r *Relay) markProcessed(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastProcessed = time.Now()
	r.healthy = healthy
}

func (r *Relay) setHealthy(healthy bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.healthy = healthy
}

// Start blocks until ctx is cancelled.
func (r *Relay) Start(ctx context.Context) error {
	reportProblem := func(ev pq.ListenerEventType, err error) {
		if err != nil {
			r.logger.Error().Err(err).Msg("listener error")
		}
	}

	listener := pq.NewListener(r.dbURL, listenerMinReconnectInterval, listenerMaxReconnectInterval, reportProblem)
	defer listener.Close()

	if err := listener.Listen(outboxChannelName); err != nil {
		return err
	}
	r.logger.Info().Str("channel", outboxChannelName).Msg("listening for notifications")

	if err := r.processPending(ctx); err != nil {
		r.logger.Error().Err(err).Msg("error processing startup backlog")
	}

	ticker := time.NewTicker(periodicProcessInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("shutting down")
			return ctx.Err()

		case n := <-listener.Notify:
			if n == nil {
				r.logger.Warn().Msg("received nil notification, reconnecting")
				r.setHealthy(false)
				continue
			}
			if err := r.processEvent(ctx, n.Extra); err != nil {
				r.logger.Error().Err(err).Str("event_id", n.Extra).Msg("error processing event")
				continue
			}
			r.markProcessed(true)

		case <-ticker.C:
			go listener.Ping()
			if err := r.processPending(ctx); err != nil {
				r.logger.Error().Err(err).Msg("error in periodic processing")
				continue
			}
			r.markProcessed(r.IsHealthy())
		}
	}
}

func (r *Relay) processEvent(ctx context.Context, eventID string) error {
	ctx, cancel := context.WithTimeout(ctx, eventProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		var rec record
		err = tx.QueryRowContext(ctx, `
			SELECT id, event_type, payload
			FROM outbox_events
			WHERE id = $1 AND processed_at IS NULL
			FOR UPDATE SKIP LOCKED`, eventID).Scan(&rec.ID, &rec.EventType, &rec.Payload)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}

		if err := r.deliver(ctx, rec); err != nil && !errors.Is(err, errSkipped) {
			return nil, err
		}
		if err := markDone(ctx, tx, rec.ID); err != nil {
			return nil, err
		}
		return nil, tx.Commit()
	})
	return err
}

// processPending sweeps up events whose notification was missed.
func (r *Relay) processPending(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, batchProcessTimeout)
	defer cancel()

	_, err := r.dbCB.Execute(func() (interface{}, error) {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
		defer tx.Rollback()

		records, err := pendingRecords(ctx, tx)
		if err != nil {
			return nil, err
		}

		for _, rec := range records {
			if err := r.deliver(ctx, rec); err != nil && !errors.Is(err, errSkipped) {
				r.logger.Error().Err(err).Str("event_id", rec.ID).Msg("failed to publish event")
				continue
			}
			if err := markDone(ctx, tx, rec.ID); err != nil {
				return nil, err
			}
		}
		return nil, tx.Commit()
	})
	return err
}

func pendingRecords(ctx context.Context, tx *sql.Tx) ([]record, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, event_type, payload
		FROM outbox_events
		WHERE processed_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED`, maxEventsPerBatch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		var rec record
		if err := rows.Scan(&rec.ID, &rec.EventType, &rec.Payload); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func markDone(ctx context.Context, tx *sql.Tx, id string) error {
	_, err := tx.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	return err
}

// deliver publishes one stored event. Rows that can never be published
// return errSkipped so they are marked done instead of retried forever.
func (r *Relay) deliver(ctx context.Context, rec record) error {
	if !knownEvent(rec.EventType) {
		r.logger.Warn().Str("event_id", rec.ID).Str("event_type", rec.EventType).Msg("unknown event type, skipping")
		return errSkipped
	}

	var evt ports.PatientEvent
	if err := json.Unmarshal(rec.Payload, &evt); err != nil {
		r.logger.Error().Err(err).Str("event_id", rec.ID).Msg("invalid payload, skipping")
		return errSkipped
	}

	if err := r.publisher.PublishPatientEvent(ctx, evt); err != nil {
		return err
	}
	r.logger.Debug().Str("event_id", rec.ID).Str("event_type", rec.EventType).Msg("processed event")
	return nil
}

func knownEvent(eventType string) bool {
	switch eventType {
	case ports.EventPatientRegistered, ports.EventPatientTriaged, ports.EventPatientDischarged:
		return true
	}
	return false
}
