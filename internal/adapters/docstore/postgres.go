package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// PostgresStore keeps each collection in its own table of JSONB documents.
// The "_id" key maps to the id column and is not stored inside doc.
type PostgresStore struct {
	db *sql.DB
	cb *gobreaker.CircuitBreaker
}

var _ ports.DocumentStore = (*PostgresStore)(nil)

var ErrUnknownCollection = errors.New("unknown collection")

var tables = map[string]string{
	ports.CollectionPatients: "patients",
	ports.CollectionUsers:    "users",
}

func NewPostgresStore(db *sql.DB, cb *gobreaker.CircuitBreaker) *PostgresStore {
	return &PostgresStore{db: db, cb: cb}
}

func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, table := range tables {
		_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id TEXT PRIMARY KEY,
				doc JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, table))
		if err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindAll(ctx context.Context, collection string) ([]ports.Document, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}

	res, err := s.execute(func() (interface{}, error) {
		rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT id, doc FROM %s ORDER BY created_at, id", table))
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		docs := []ports.Document{}
		for rows.Next() {
			doc, err := scanDocument(rows)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
		return docs, rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return res.([]ports.Document), nil
}

func (s *PostgresStore) FindOne(ctx context.Context, collection string, filter ports.Filter) (ports.Document, error) {
	table, err := tableFor(collection)
	if err != nil {
		return nil, err
	}
	where, args, err := whereClause(filter, 1)
	if err != nil {
		return nil, err
	}

	res, err := s.execute(func() (interface{}, error) {
		row := s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT id, doc FROM %s WHERE %s LIMIT 1", table, where), args...)
		doc, err := scanDocument(row)
		if errors.Is(err, sql.ErrNoRows) {
			return ports.Document(nil), nil
		}
		return doc, err
	})
	if err != nil {
		return nil, err
	}
	return res.(ports.Document), nil
}

func (s *PostgresStore) InsertOne(ctx context.Context, collection string, doc ports.Document) (string, error) {
	table, err := tableFor(collection)
	if err != nil {
		return "", err
	}

	body := copyDocument(doc)
	id, _ := body["_id"].(string)
	if id == "" {
		id = uuid.NewString()
	}
	delete(body, "_id")
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	_, err = s.execute(func() (interface{}, error) {
		_, err := s.db.ExecContext(ctx, fmt.Sprintf("INSERT INTO %s (id, doc) VALUES ($1, $2)", table), id, payload)
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		return nil, err
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) UpdateOne(ctx context.Context, collection string, filter ports.Filter, set ports.Document) (int64, error) {
	table, err := tableFor(collection)
	if err != nil {
		return 0, err
	}
	body := copyDocument(set)
	delete(body, "_id")
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("encode update: %w", err)
	}
	where, args, err := whereClause(filter, 2)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf(
		"UPDATE %[1]s SET doc = doc || $1::jsonb WHERE id = (SELECT id FROM %[1]s WHERE %[2]s LIMIT 1)",
		table, where)
	return s.affected(ctx, query, append([]any{payload}, args...)...)
}

func (s *PostgresStore) DeleteOne(ctx context.Context, collection string, filter ports.Filter) (int64, error) {
	table, err := tableFor(collection)
	if err != nil {
		return 0, err
	}
	where, args, err := whereClause(filter, 1)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("DELETE FROM %[1]s WHERE id = (SELECT id FROM %[1]s WHERE %[2]s LIMIT 1)", table, where)
	return s.affected(ctx, query, args...)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) affected(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := s.execute(func() (interface{}, error) {
		out, err := s.db.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return out.RowsAffected()
	})
	if err != nil {
		return 0, err
	}
	return res.(int64), nil
}

func (s *PostgresStore) execute(fn func() (interface{}, error)) (interface{}, error) {
	if s.cb == nil {
		return fn()
	}
	return s.cb.Execute(fn)
}

func tableFor(collection string) (string, error) {
	table, ok := tables[collection]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return table, nil
}

// whereClause builds the filter condition with placeholders starting at
// $first. An empty filter matches every row.
func whereClause(filter ports.Filter, first int) (string, []any, error) {
	var (
		conds []string
		args  []any
	)
	rest := make(map[string]any, len(filter))
	for k, v := range filter {
		if k == "_id" {
			conds = append(conds, fmt.Sprintf("id = $%d", first+len(args)))
			args = append(args, fmt.Sprint(v))
			continue
		}
		rest[k] = v
	}
	if len(rest) > 0 {
		payload, err := json.Marshal(rest)
		if err != nil {
			return "", nil, fmt.Errorf("encode filter: %w", err)
		}
		conds = append(conds, fmt.Sprintf("doc @> $%d::jsonb", first+len(args)))
		args = append(args, payload)
	}
	if len(conds) == 0 {
		return "TRUE", nil, nil
	}
	return strings.Join(conds, " AND "), args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (ports.Document, error) {
	var (
		id  string
		raw []byte
	)
	if err := row.Scan(&id, &raw); err != nil {
		return nil, err
	}
	doc := ports.Document{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", id, err)
	}
	doc["_id"] = id
	return doc, nil
}
