package ports

import (
	"context"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
)

// AdvisoryClient is the generative text service. Its output is advisory
// and never parsed.
type AdvisoryClient interface {
	SuggestDiagnosis(ctx context.Context, symptoms, vitalsSummary, medicalHistory string) (string, error)
	MedicationInfo(ctx context.Context, medicationName string) (string, error)
}

// TokenStore remembers revoked session tokens until they expire.
type TokenStore interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type CredentialVerifier interface {
	VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error)
}

// WorkflowMetrics records lifecycle activity of the patient roster.
type WorkflowMetrics interface {
	PatientRegistered()
	TransitionCommitted(from, to domain.Status)
	WriteReverted(reason string)
}
