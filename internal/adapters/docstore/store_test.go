package docstore

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// exerciseStore runs the behaviour every DocumentStore must share.
func exerciseStore(t *testing.T, store ports.DocumentStore) {
	t.Helper()
	ctx := context.Background()
	coll := ports.CollectionPatients

	id, err := store.InsertOne(ctx, coll, ports.Document{
		"_id":     "doc-1",
		"name":    "John Doe",
		"version": 1,
		"vitals":  map[string]any{"temperature": "98.6°F"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if id != "doc-1" {
		t.Errorf("expected id doc-1, got %q", id)
	}

	if _, err := store.InsertOne(ctx, coll, ports.Document{"_id": "doc-1"}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}

	doc, err := store.FindOne(ctx, coll, ports.Filter{"_id": "doc-1"})
	if err != nil || doc == nil {
		t.Fatalf("find: %v %v", doc, err)
	}
	if doc["name"] != "John Doe" {
		t.Errorf("unexpected name %v", doc["name"])
	}

	// A stale version matches nothing.
	n, err := store.UpdateOne(ctx, coll, ports.Filter{"_id": "doc-1", "version": 7}, ports.Document{"name": "X"})
	if err != nil || n != 0 {
		t.Errorf("expected no match for stale version, got %d %v", n, err)
	}

	n, err = store.UpdateOne(ctx, coll, ports.Filter{"_id": "doc-1", "version": int64(1)}, ports.Document{"name": "Jonathan Doe", "version": 2})
	if err != nil || n != 1 {
		t.Fatalf("expected one match, got %d %v", n, err)
	}

	doc, _ = store.FindOne(ctx, coll, ports.Filter{"_id": "doc-1"})
	if doc["name"] != "Jonathan Doe" {
		t.Errorf("update not applied: %v", doc)
	}
	if _, ok := doc["vitals"].(map[string]any); !ok {
		t.Errorf("nested document lost: %#v", doc["vitals"])
	}

	missing, err := store.FindOne(ctx, coll, ports.Filter{"_id": "nope"})
	if err != nil || missing != nil {
		t.Errorf("expected nil for no match, got %v %v", missing, err)
	}

	byField, err := store.FindOne(ctx, coll, ports.Filter{"name": "Jonathan Doe"})
	if err != nil || byField == nil || byField["_id"] != "doc-1" {
		t.Errorf("field filter failed: %v %v", byField, err)
	}

	all, err := store.FindAll(ctx, coll)
	if err != nil || len(all) != 1 {
		t.Errorf("expected one document, got %d %v", len(all), err)
	}

	n, err = store.DeleteOne(ctx, coll, ports.Filter{"_id": "doc-1"})
	if err != nil || n != 1 {
		t.Errorf("expected one deletion, got %d %v", n, err)
	}
	all, _ = store.FindAll(ctx, coll)
	if len(all) != 0 {
		t.Errorf("expected empty collection, got %d", len(all))
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_, _ = store.InsertOne(ctx, ports.CollectionUsers, ports.Document{"_id": "u-1", "tags": map[string]any{"a": "b"}})

	doc, _ := store.FindOne(ctx, ports.CollectionUsers, ports.Filter{"_id": "u-1"})
	doc["tags"].(map[string]any)["a"] = "changed"

	again, _ := store.FindOne(ctx, ports.CollectionUsers, ports.Filter{"_id": "u-1"})
	if again["tags"].(map[string]any)["a"] != "b" {
		t.Error("store exposed its internal document")
	}
}

func TestMemoryStore_GeneratesIDs(t *testing.T) {
	store := NewMemoryStore()
	id, err := store.InsertOne(context.Background(), ports.CollectionUsers, ports.Document{"email": "a@b.c"})
	if err != nil || id == "" {
		t.Fatalf("expected generated id, got %q %v", id, err)
	}
}

func TestMemoryStore_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMemoryStore().FindAll(ctx, ports.CollectionPatients); err == nil {
		t.Error("expected context error")
	}
}

func TestEqualValues(t *testing.T) {
	now := time.Now()
	tests := []struct {
		a, b any
		want bool
	}{
		{int(3), float64(3), true},
		{int32(3), int64(3), true},
		{int64(3), int64(4), false},
		{"3", 3, false},
		{now, now.UTC(), true},
		{true, true, true},
	}
	for _, tt := range tests {
		if got := equalValues(tt.a, tt.b); got != tt.want {
			t.Errorf("equalValues(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestWhereClause(t *testing.T) {
	where, args, err := whereClause(ports.Filter{"_id": "p-1", "version": 3}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if where != "id = $2 AND doc @> $3::jsonb" {
		t.Errorf("unexpected clause %q", where)
	}
	if len(args) != 2 || args[0] != "p-1" || string(args[1].([]byte)) != `{"version":3}` {
		t.Errorf("unexpected args %v", args)
	}

	where, args, _ = whereClause(ports.Filter{}, 1)
	if where != "TRUE" || len(args) != 0 {
		t.Errorf("empty filter should match all, got %q %v", where, args)
	}
}

func TestPostgresStore_Integration(t *testing.T) {
	dsn := os.Getenv("TEST_DB_CONNECTION_STRING")
	if dsn == "" {
		t.Skip("TEST_DB_CONNECTION_STRING not set, skipping integration test")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	store := NewPostgresStore(db, nil)
	ctx := context.Background()
	if err := store.EnsureSchema(ctx); err != nil {
		t.Fatal(err)
	}
	_, _ = db.ExecContext(ctx, "DELETE FROM patients")
	exerciseStore(t, store)
}

func TestMongoStore_Integration(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set, skipping integration test")
	}
	ctx := context.Background()
	store, err := NewMongoStore(ctx, uri, "clinic_test", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close(ctx)

	_ = store.db.Collection(ports.CollectionPatients).Drop(ctx)
	exerciseStore(t, store)
}
