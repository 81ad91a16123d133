package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
)

func fields(t *testing.T, err error) []string {
	t.Helper()
	if err == nil {
		return nil
	}
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	out := make([]string, 0, len(verr.Violations))
	for _, v := range verr.Violations {
		out = append(out, v.Field)
	}
	return out
}

func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name  string
		draft domain.Draft
		want  []string
	}{
		{"valid", domain.Draft{Name: "Emily Davis", Age: 28, Gender: domain.GenderFemale, Contact: "555-0104"}, nil},
		{"everything_missing", domain.Draft{}, []string{"name", "age", "gender", "contact"}},
		{"negative_age", domain.Draft{Name: "A", Age: -3, Gender: domain.GenderOther, Contact: "x"}, []string{"age"}},
		{"whitespace_name", domain.Draft{Name: "   ", Age: 40, Gender: domain.GenderMale, Contact: "x"}, []string{"name"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fields(t, domain.ValidateDraft(tt.draft)))
		})
	}
}

func TestValidatePatch(t *testing.T) {
	assert.NoError(t, domain.ValidatePatch(domain.Patch{Symptoms: domain.Ptr("")}))

	err := domain.ValidatePatch(domain.Patch{
		Name:   domain.Ptr(""),
		Age:    domain.Ptr(0),
		Status: domain.Ptr(domain.Status("Admitted")),
	})
	assert.Equal(t, []string{"name", "age", "status"}, fields(t, err))
}

func TestValidateNewUser(t *testing.T) {
	ok := domain.NewUser{Name: "Dr. House", Email: "house@clinic.test", Role: domain.RoleDoctor, Password: "secret1"}
	assert.NoError(t, domain.ValidateNewUser(ok))

	bad := domain.NewUser{Email: "not-an-email", Role: "Nurse", Password: "123"}
	assert.Equal(t, []string{"name", "email", "role", "password"}, fields(t, domain.ValidateNewUser(bad)))
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "nurse@clinic.test", domain.NormalizeEmail("  Nurse@Clinic.TEST "))
}

func TestPatch_ApplyToCopies(t *testing.T) {
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	original := domain.Patient{ID: "p-1", Name: "John Doe", Status: domain.StatusWaitingForTriage}

	vitals := domain.Vitals{Temperature: "98.6°F"}
	patch := domain.Patch{Vitals: &vitals, DischargedAt: &at, Paid: domain.Ptr(true)}
	next := patch.ApplyTo(original)

	vitals.Temperature = "changed"
	assert.Equal(t, "98.6°F", next.Vitals.Temperature)
	assert.Nil(t, original.Vitals)
	assert.False(t, original.Paid)
	assert.True(t, next.Paid)

	clone := next.Clone()
	clone.Vitals.HeartRate = "90 bpm"
	assert.Empty(t, next.Vitals.HeartRate)
}

func TestVitals(t *testing.T) {
	v := domain.Vitals{Temperature: "98.6°F", BloodPressure: "120/80 mmHg"}
	assert.Equal(t, []string{"heartRate", "respiratoryRate"}, v.Missing())
	assert.Equal(t, "Temp: 98.6°F, BP: 120/80 mmHg, HR: , RR: ", v.Summary())
}
