package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// MockEventPublisher implements ports.PatientEventPublisher for testing.
// It lets the roster and the outbox relay be tested without RabbitMQ.
type MockEventPublisher struct {
	mu sync.RWMutex

	PublishedEvents []ports.PatientEvent
	PublishError    error
	PublishCalls    int
}

var _ ports.PatientEventPublisher = (*MockEventPublisher)(nil)

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) PublishPatientEvent(ctx context.Context, evt ports.PatientEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.PublishCalls++
	if m.PublishError != nil {
		return m.PublishError
	}
	m.PublishedEvents = append(m.PublishedEvents, evt)
	return nil
}

// Events returns a copy of the published events.
func (m *MockEventPublisher) Events() []ports.PatientEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()

	events := make([]ports.PatientEvent, len(m.PublishedEvents))
	copy(events, m.PublishedEvents)
	return events
}

// Types returns the event types in publish order.
func (m *MockEventPublisher) Types() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	types := make([]string, 0, len(m.PublishedEvents))
	for _, e := range m.PublishedEvents {
		types = append(types, e.Type)
	}
	return types
}
