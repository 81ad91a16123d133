// Package outbox stores patient events in PostgreSQL next to the records
// they describe and relays them to the message broker.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/sony/gobreaker"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id           TEXT PRIMARY KEY,
	event_type   TEXT NOT NULL,
	payload      JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	processed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS outbox_events_pending_idx
	ON outbox_events (created_at) WHERE processed_at IS NULL;

CREATE OR REPLACE FUNCTION notify_outbox_event() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('` + outboxChannelName + `', NEW.id);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS outbox_events_notify ON outbox_events;
CREATE TRIGGER outbox_events_notify
	AFTER INSERT ON outbox_events
	FOR EACH ROW EXECUTE FUNCTION notify_outbox_event();
`

// Writer implements ports.PatientEventPublisher by inserting into the
// outbox table. The relay process picks the rows up from there.
type Writer struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
}

var _ ports.PatientEventPublisher = (*Writer)(nil)

func NewWriter(db *sql.DB, cb *gobreaker.CircuitBreaker) *Writer {
	return &Writer{db: db, cb: cb}
}

// EnsureSchema creates the outbox table and its NOTIFY trigger.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create outbox schema: %w", err)
	}
	return nil
}

func (w *Writer) PublishPatientEvent(ctx context.Context, evt ports.PatientEvent) error {
	id, eventType, payload, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	_, err = w.cb.Execute(func() (interface{}, error) {
		_, err := w.db.ExecContext(ctx,
			`INSERT INTO outbox_events (id, event_type, payload) VALUES ($1, $2, $3)`,
			id, eventType, payload)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("write outbox event %s: %w", id, err)
	}
	return nil
}

func encodeEvent(evt ports.PatientEvent) (string, string, []byte, error) {
	if evt.ID == "" || evt.Type == "" {
		return "", "", nil, fmt.Errorf("outbox event needs an id and a type")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return "", "", nil, fmt.Errorf("encode outbox event %s: %w", evt.ID, err)
	}
	return evt.ID, evt.Type, payload, nil
}
