package services

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/roster"
)

const advisoryServiceName = "diagnosis assistant"

// AdvisoryService asks the generative text service for help. Suggestions
// are stored as advisory text and never change the patient's status.
type AdvisoryService struct {
	roster *roster.Roster
	client ports.AdvisoryClient
	logger zerolog.Logger
}

func NewAdvisoryService(r *roster.Roster, client ports.AdvisoryClient, logger zerolog.Logger) *AdvisoryService {
	return &AdvisoryService{roster: r, client: client, logger: logger}
}

func (s *AdvisoryService) SuggestDiagnosis(ctx context.Context, patientID string) (domain.Patient, error) {
	patient, err := s.roster.Get(patientID)
	if err != nil {
		return domain.Patient{}, err
	}

	var violations []domain.Violation
	if strings.TrimSpace(patient.Symptoms) == "" {
		violations = append(violations, domain.Violation{Field: "symptoms", Message: "are required for a suggestion"})
	}
	if patient.Vitals == nil {
		violations = append(violations, domain.Violation{Field: "vitals", Message: "are required for a suggestion"})
	}
	if len(violations) > 0 {
		return domain.Patient{}, &domain.ValidationError{Violations: violations}
	}

	text, err := s.client.SuggestDiagnosis(ctx, patient.Symptoms, patient.Vitals.Summary(), patient.MedicalHistory)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", patientID).Msg("diagnosis suggestion failed")
		return domain.Patient{}, &domain.ExternalServiceError{Service: advisoryServiceName, Err: err}
	}
	return s.roster.AttachSuggestion(ctx, patientID, text)
}

func (s *AdvisoryService) MedicationInfo(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", &domain.ValidationError{Violations: []domain.Violation{{Field: "name", Message: "is required"}}}
	}

	info, err := s.client.MedicationInfo(ctx, name)
	if err != nil {
		s.logger.Warn().Err(err).Str("medication", name).Msg("medication lookup failed")
		return "", &domain.ExternalServiceError{Service: advisoryServiceName, Err: err}
	}
	return info, nil
}
