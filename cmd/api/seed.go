package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/repository"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/config"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/services"
)

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo patients and optionally the first admin account",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("admin-name")
			email, _ := cmd.Flags().GetString("admin-email")
			password, _ := cmd.Flags().GetString("admin-password")
			return runSeed(cmd.Context(), name, email, password)
		},
	}
	cmd.Flags().String("admin-name", "Administrator", "name of the admin account")
	cmd.Flags().String("admin-email", "", "create an admin account with this email")
	cmd.Flags().String("admin-password", "", "password of the admin account")
	return cmd
}

func runSeed(ctx context.Context, adminName, adminEmail, adminPassword string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Env, cfg.LogLevel)
	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn().Msg("seeding the in-memory store has no lasting effect")
	}

	in, err := openInfra(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer in.Close()

	patients := repository.NewPatientRepository(in.store)
	existing, err := patients.List(ctx)
	if err != nil {
		return fmt.Errorf("list patients: %w", err)
	}
	if len(existing) > 0 {
		logger.Info().Int("patients", len(existing)).Msg("store already has patients, skipping demo data")
	} else {
		for _, p := range demoPatients(time.Now().UTC(), uuid.NewString) {
			if _, err := patients.Create(ctx, p); err != nil {
				return fmt.Errorf("seed %s: %w", p.Name, err)
			}
			logger.Info().Str("name", p.Name).Str("status", string(p.Status)).Msg("seeded patient")
		}
	}

	if adminEmail == "" {
		return nil
	}
	accounts := services.NewAccountService(repository.NewUserRepository(in.store))
	admin, err := accounts.SignupAdmin(ctx, adminName, adminEmail, adminPassword)
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	logger.Info().Str("email", admin.Email).Msg("seeded admin account")
	return nil
}

// demoPatients is a small waiting room covering every status.
func demoPatients(now time.Time, newID func() string) []domain.Patient {
	day := 24 * time.Hour
	twoDaysAgo := now.Add(-2 * day)

	build := func(p domain.Patient) domain.Patient {
		p.ID = newID()
		p.AvatarURL = domain.AvatarURL(p.ID)
		p.Version = 1
		return p
	}

	return []domain.Patient{
		build(domain.Patient{
			Name:           "John Doe",
			Age:            45,
			Gender:         domain.GenderMale,
			Contact:        "555-0101",
			RegisteredAt:   now.Add(-day),
			Status:         domain.StatusWaitingForTriage,
			MedicalHistory: "Hypertension, diagnosed in 2020. No known allergies.",
		}),
		build(domain.Patient{
			Name:           "Jane Smith",
			Age:            34,
			Gender:         domain.GenderFemale,
			Contact:        "555-0102",
			RegisteredAt:   now,
			Status:         domain.StatusWaitingForDoctor,
			Paid:           true,
			MedicalHistory: "Seasonal allergies. History of migraines.",
			Vitals: &domain.Vitals{
				Temperature:     "99.1°F",
				BloodPressure:   "130/85 mmHg",
				HeartRate:       "88 bpm",
				RespiratoryRate: "20 rpm",
			},
			Symptoms: "Persistent cough for 3 days, sore throat, and occasional headaches. Reports feeling fatigued.",
		}),
		build(domain.Patient{
			Name:           "Michael Johnson",
			Age:            52,
			Gender:         domain.GenderMale,
			Contact:        "555-0103",
			RegisteredAt:   twoDaysAgo,
			Status:         domain.StatusDischarged,
			Paid:           true,
			MedicalHistory: "Type 2 Diabetes, managed with diet and medication.",
			Vitals: &domain.Vitals{
				Temperature:     "98.6°F",
				BloodPressure:   "125/80 mmHg",
				HeartRate:       "75 bpm",
				RespiratoryRate: "16 rpm",
			},
			Symptoms:     "Annual check-up, no new complaints.",
			Diagnosis:    "Routine check-up, vitals stable.",
			Medication:   "Continue current medication regimen for diabetes.",
			DischargedAt: &twoDaysAgo,
		}),
		build(domain.Patient{
			Name:           "Emily Davis",
			Age:            28,
			Gender:         domain.GenderFemale,
			Contact:        "555-0104",
			RegisteredAt:   now,
			Status:         domain.StatusWaitingForTriage,
			MedicalHistory: "None",
		}),
		build(domain.Patient{
			Name:           "Chris Lee",
			Age:            41,
			Gender:         domain.GenderOther,
			Contact:        "555-0105",
			RegisteredAt:   now,
			Status:         domain.StatusWaitingForDoctor,
			Paid:           true,
			MedicalHistory: "Asthma, uses inhaler as needed.",
			Vitals: &domain.Vitals{
				Temperature:     "98.7°F",
				BloodPressure:   "118/76 mmHg",
				HeartRate:       "82 bpm",
				RespiratoryRate: "18 rpm",
			},
			Symptoms: "Shortness of breath after exercise.",
		}),
	}
}
