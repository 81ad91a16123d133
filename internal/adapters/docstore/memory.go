// Package docstore holds the DocumentStore adapters: an in-memory store for
// development and tests, MongoDB, and PostgreSQL JSONB documents.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

var ErrDuplicateID = errors.New("document with this _id already exists")

type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]*memCollection
}

type memCollection struct {
	order []string
	docs  map[string]ports.Document
}

var _ ports.DocumentStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]*memCollection)}
}

func (s *MemoryStore) collection(name string) *memCollection {
	c, ok := s.collections[name]
	if !ok {
		c = &memCollection{docs: make(map[string]ports.Document)}
		s.collections[name] = c
	}
	return c
}

func (s *MemoryStore) FindAll(ctx context.Context, collection string) ([]ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return []ports.Document{}, nil
	}
	out := make([]ports.Document, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, copyDocument(c.docs[id]))
	}
	return out, nil
}

func (s *MemoryStore) FindOne(ctx context.Context, collection string, filter ports.Filter) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[collection]
	if !ok {
		return nil, nil
	}
	if id, ok := c.find(filter); ok {
		return copyDocument(c.docs[id]), nil
	}
	return nil, nil
}

func (s *MemoryStore) InsertOne(ctx context.Context, collection string, doc ports.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc = copyDocument(doc)
	id, _ := doc["_id"].(string)
	if id == "" {
		id = uuid.NewString()
		doc["_id"] = id
	}

	c := s.collection(collection)
	if _, exists := c.docs[id]; exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	c.docs[id] = doc
	c.order = append(c.order, id)
	return id, nil
}

func (s *MemoryStore) UpdateOne(ctx context.Context, collection string, filter ports.Filter, set ports.Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	id, ok := c.find(filter)
	if !ok {
		return 0, nil
	}
	doc := c.docs[id]
	for k, v := range copyDocument(set) {
		if k == "_id" {
			continue
		}
		doc[k] = v
	}
	return 1, nil
}

func (s *MemoryStore) DeleteOne(ctx context.Context, collection string, filter ports.Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[collection]
	if !ok {
		return 0, nil
	}
	id, ok := c.find(filter)
	if !ok {
		return 0, nil
	}
	delete(c.docs, id)
	for i, existing := range c.order {
		if existing == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (c *memCollection) find(filter ports.Filter) (string, bool) {
	if id, ok := filter["_id"].(string); ok {
		doc, exists := c.docs[id]
		return id, exists && matches(doc, filter)
	}
	for _, id := range c.order {
		if matches(c.docs[id], filter) {
			return id, true
		}
	}
	return "", false
}

func matches(doc ports.Document, filter ports.Filter) bool {
	for k, want := range filter {
		got, ok := doc[k]
		if !ok || !equalValues(got, want) {
			return false
		}
	}
	return true
}
