package repository

import (
	"context"
	"fmt"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

type PatientRepository struct {
	store ports.DocumentStore
}

var _ ports.PatientRepository = (*PatientRepository)(nil)

func NewPatientRepository(store ports.DocumentStore) *PatientRepository {
	return &PatientRepository{store: store}
}

func (r *PatientRepository) List(ctx context.Context) ([]domain.Patient, error) {
	docs, err := r.store.FindAll(ctx, ports.CollectionPatients)
	if err != nil {
		return nil, err
	}
	patients := make([]domain.Patient, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePatient(doc)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, nil
}

func (r *PatientRepository) Get(ctx context.Context, id string) (*domain.Patient, error) {
	doc, err := r.store.FindOne(ctx, ports.CollectionPatients, ports.Filter{fieldID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	p, err := decodePatient(doc)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) Create(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	if patient.Version == 0 {
		patient.Version = 1
	}
	id, err := r.store.InsertOne(ctx, ports.CollectionPatients, encodePatient(patient))
	if err != nil {
		return domain.Patient{}, fmt.Errorf("insert patient: %w", err)
	}
	patient.ID = id
	if patient.AvatarURL == "" {
		patient.AvatarURL = domain.AvatarURL(id)
	}
	return patient, nil
}

// Update writes the patch only while the stored version is still the one
// the caller read. A miss is told apart as not found or version conflict.
func (r *PatientRepository) Update(ctx context.Context, id string, version int64, patch domain.Patch) (int64, error) {
	matched, err := r.store.UpdateOne(ctx, ports.CollectionPatients,
		ports.Filter{fieldID: id, fieldVersion: version},
		encodePatch(patch, version))
	if err != nil {
		return 0, fmt.Errorf("update patient %s: %w", id, err)
	}
	if matched > 0 {
		return version + 1, nil
	}

	doc, err := r.store.FindOne(ctx, ports.CollectionPatients, ports.Filter{fieldID: id})
	if err != nil {
		return 0, fmt.Errorf("update patient %s: %w", id, err)
	}
	if doc == nil {
		return 0, domain.ErrNotFound
	}
	return 0, domain.ErrVersionConflict
}
