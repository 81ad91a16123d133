package ports

import (
	"context"
	"time"
)

const (
	EventPatientRegistered = "patient.registered"
	EventPatientTriaged    = "patient.triaged"
	EventPatientDischarged = "patient.discharged"
)

type PatientEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	PatientID  string    `json:"patient_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

type PatientEventPublisher interface {
	PublishPatientEvent(ctx context.Context, evt PatientEvent) error
}
