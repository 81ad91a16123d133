package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/docstore"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/test/mocks"
)

var registeredAt = time.Date(2024, 3, 4, 9, 0, 0, 123000000, time.UTC)

func TestPatientRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewPatientRepository(docstore.NewMemoryStore())

	discharged := mocks.TriagedPatient("p-1", registeredAt)
	discharged.Status = domain.StatusDischarged
	discharged.Diagnosis = "Viral URI"
	discharged.Medication = "Rest"
	discharged.MedicalHistory = "Asthma"
	discharged.DischargedAt = domain.Ptr(registeredAt.Add(time.Hour))

	for _, p := range []domain.Patient{mocks.WaitingPatient("p-2", registeredAt), discharged} {
		created, err := repo.Create(ctx, p)
		if err != nil {
			t.Fatalf("create %s: %v", p.ID, err)
		}
		got, err := repo.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("get %s: %v", p.ID, err)
		}
		if !equalPatients(*got, p) {
			t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", *got, p)
		}
	}

	all, err := repo.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 patients, got %d %v", len(all), err)
	}
}

func TestPatientRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewPatientRepository(docstore.NewMemoryStore())
	if _, err := repo.Create(ctx, mocks.WaitingPatient("p-1", registeredAt)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		id          string
		version     int64
		wantVersion int64
		wantErr     error
	}{
		{name: "matching_version", id: "p-1", version: 1, wantVersion: 2},
		{name: "stale_version", id: "p-1", version: 1, wantErr: domain.ErrVersionConflict},
		{name: "unknown_patient", id: "p-404", version: 1, wantErr: domain.ErrNotFound},
		{name: "next_version", id: "p-1", version: 2, wantVersion: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.Update(ctx, tt.id, tt.version, domain.Patch{Symptoms: domain.Ptr("Cough")})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.wantVersion {
				t.Errorf("expected version %d, got %d", tt.wantVersion, got)
			}
		})
	}

	p, _ := repo.Get(ctx, "p-1")
	if p.Symptoms != "Cough" || p.Version != 3 {
		t.Errorf("unexpected stored patient %+v", p)
	}
}

func TestPatientRepository_ClearsSuggestion(t *testing.T) {
	ctx := context.Background()
	repo := NewPatientRepository(docstore.NewMemoryStore())
	p := mocks.TriagedPatient("p-1", registeredAt)
	p.AISuggestedDiagnosis = "Strep throat"
	_, _ = repo.Create(ctx, p)

	if _, err := repo.Update(ctx, "p-1", 1, domain.Patch{AISuggestedDiagnosis: domain.Ptr("")}); err != nil {
		t.Fatal(err)
	}
	got, _ := repo.Get(ctx, "p-1")
	if got.AISuggestedDiagnosis != "" {
		t.Errorf("suggestion not cleared: %q", got.AISuggestedDiagnosis)
	}
}

func TestDecodePatient_ToleratesBackendNumbers(t *testing.T) {
	doc := ports.Document{
		"_id":          "p-1",
		"name":         "Emily Davis",
		"age":          float64(28),
		"registeredAt": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"status":       "Waiting for Triage",
		"version":      int32(5),
	}
	p, err := decodePatient(doc)
	if err != nil {
		t.Fatal(err)
	}
	if p.Age != 28 || p.Version != 5 {
		t.Errorf("unexpected numbers age=%d version=%d", p.Age, p.Version)
	}
	if p.AvatarURL != domain.AvatarURL("p-1") {
		t.Errorf("expected derived avatar, got %q", p.AvatarURL)
	}

	delete(doc, "registeredAt")
	if _, err := decodePatient(doc); err == nil {
		t.Error("expected error for missing registeredAt")
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(docstore.NewMemoryStore())

	admin, err := repo.Create(ctx, domain.User{ID: "u-1", Name: "Admin", Email: " Admin@Clinic.test", Role: domain.RoleAdmin, PasswordHash: "h1", CreatedAt: registeredAt})
	if err != nil {
		t.Fatal(err)
	}
	if admin.Email != "admin@clinic.test" {
		t.Errorf("email not normalised: %q", admin.Email)
	}

	if _, err := repo.Create(ctx, domain.User{ID: "u-2", Email: "ADMIN@clinic.test", Role: domain.RoleDoctor, CreatedAt: registeredAt}); !errors.Is(err, domain.ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}

	found, err := repo.FindByEmail(ctx, "admin@CLINIC.test")
	if err != nil || found.ID != "u-1" {
		t.Fatalf("find by email: %v %v", found, err)
	}

	hasAdmin, _ := repo.HasRole(ctx, domain.RoleAdmin)
	hasDoctor, _ := repo.HasRole(ctx, domain.RoleDoctor)
	if !hasAdmin || hasDoctor {
		t.Errorf("unexpected roles admin=%v doctor=%v", hasAdmin, hasDoctor)
	}

	if err := repo.UpdatePassword(ctx, "u-1", "h2"); err != nil {
		t.Fatal(err)
	}
	found, _ = repo.FindByID(ctx, "u-1")
	if found.PasswordHash != "h2" {
		t.Errorf("password not updated")
	}

	if err := repo.Delete(ctx, "u-404"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.Delete(ctx, "u-1"); err != nil {
		t.Fatal(err)
	}
	users, _ := repo.List(ctx)
	if len(users) != 0 {
		t.Errorf("expected no users, got %d", len(users))
	}
}

func equalPatients(a, b domain.Patient) bool {
	if (a.Vitals == nil) != (b.Vitals == nil) || (a.DischargedAt == nil) != (b.DischargedAt == nil) {
		return false
	}
	if a.Vitals != nil && *a.Vitals != *b.Vitals {
		return false
	}
	if a.DischargedAt != nil && !a.DischargedAt.Equal(*b.DischargedAt) {
		return false
	}
	if !a.RegisteredAt.Equal(b.RegisteredAt) {
		return false
	}
	a.Vitals, b.Vitals = nil, nil
	a.DischargedAt, b.DischargedAt = nil, nil
	a.RegisteredAt, b.RegisteredAt = time.Time{}, time.Time{}
	return a == b
}
