package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// SuggestCall records the prompt inputs handed to the advisory client.
type SuggestCall struct {
	Symptoms       string
	Vitals         string
	MedicalHistory string
}

// MockAdvisoryClient implements ports.AdvisoryClient with canned replies.
type MockAdvisoryClient struct {
	mu sync.Mutex

	Suggestion   string
	Info         string
	SuggestError error
	InfoError    error
	SuggestCalls []SuggestCall
	InfoCalls    []string
}

var _ ports.AdvisoryClient = (*MockAdvisoryClient)(nil)

func NewMockAdvisoryClient() *MockAdvisoryClient {
	return &MockAdvisoryClient{
		Suggestion: "Possible viral upper respiratory infection.",
		Info:       "Paracetamol relieves pain and reduces fever.",
	}
}

func (m *MockAdvisoryClient) SuggestDiagnosis(ctx context.Context, symptoms, vitalsSummary, medicalHistory string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SuggestCalls = append(m.SuggestCalls, SuggestCall{Symptoms: symptoms, Vitals: vitalsSummary, MedicalHistory: medicalHistory})
	if m.SuggestError != nil {
		return "", m.SuggestError
	}
	return m.Suggestion, nil
}

func (m *MockAdvisoryClient) MedicationInfo(ctx context.Context, medicationName string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.InfoCalls = append(m.InfoCalls, medicationName)
	if m.InfoError != nil {
		return "", m.InfoError
	}
	return m.Info, nil
}

func (m *MockAdvisoryClient) InfoCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.InfoCalls)
}
