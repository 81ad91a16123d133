package services_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/lifecycle"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/roster"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/services"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/test/mocks"
)

func newAccounts(t *testing.T) (*services.AccountService, *mocks.MockUserRepository) {
	t.Helper()
	repo := mocks.NewMockUserRepository()
	return services.NewAccountService(repo, services.WithHashCost(bcrypt.MinCost)), repo
}

func TestAccountService_CreateUser(t *testing.T) {
	tests := []struct {
		name    string
		input   domain.NewUser
		seed    []domain.User
		wantErr error
		wantVal bool
	}{
		{
			name:  "creates_doctor",
			input: domain.NewUser{Name: "Dr. Grey", Email: "Grey@Clinic.test", Role: domain.RoleDoctor, Password: "secret1"},
		},
		{
			name:    "rejects_short_password",
			input:   domain.NewUser{Name: "Dr. Grey", Email: "grey@clinic.test", Role: domain.RoleDoctor, Password: "123"},
			wantVal: true,
		},
		{
			name:    "rejects_taken_email",
			input:   domain.NewUser{Name: "Dr. Grey", Email: "grey@clinic.test", Role: domain.RoleDoctor, Password: "secret1"},
			seed:    []domain.User{{ID: "u-1", Email: "grey@clinic.test", Role: domain.RoleReceptionist}},
			wantErr: domain.ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newAccounts(t)
			for _, u := range tt.seed {
				repo.SeedUser(u)
			}

			user, err := svc.CreateUser(context.Background(), tt.input)

			switch {
			case tt.wantVal:
				var verr *domain.ValidationError
				assert.ErrorAs(t, err, &verr)
				assert.Empty(t, repo.CreateCalls)
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, repo.CreateCalls)
			default:
				require.NoError(t, err)
				assert.Equal(t, "grey@clinic.test", user.Email)
				assert.NotEmpty(t, user.ID)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("secret1")))
			}
		})
	}
}

func TestAccountService_SignupAdminOnlyOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccounts(t)

	admin, err := svc.SignupAdmin(ctx, "Head Admin", "admin@clinic.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	_, err = svc.SignupAdmin(ctx, "Second Admin", "other@clinic.test", "secret1")
	assert.ErrorIs(t, err, domain.ErrAdminExists)
}

func TestAccountService_DeleteUser(t *testing.T) {
	ctx := context.Background()
	svc, repo := newAccounts(t)
	repo.SeedUser(domain.User{ID: "admin", Role: domain.RoleAdmin})
	repo.SeedUser(domain.User{ID: "desk", Role: domain.RoleReceptionist})

	assert.ErrorIs(t, svc.DeleteUser(ctx, "admin"), domain.ErrAdminDeletion)
	assert.NoError(t, svc.DeleteUser(ctx, "desk"))
	assert.ErrorIs(t, svc.DeleteUser(ctx, "desk"), domain.ErrNotFound)

	_, stillThere := repo.Stored("admin")
	assert.True(t, stillThere)
}

func TestAccountService_Credentials(t *testing.T) {
	ctx := context.Background()
	svc, _ := newAccounts(t)
	created, err := svc.CreateUser(ctx, domain.NewUser{Name: "Desk", Email: "desk@clinic.test", Role: domain.RoleReceptionist, Password: "secret1"})
	require.NoError(t, err)

	user, err := svc.VerifyCredentials(ctx, " DESK@clinic.test ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = svc.VerifyCredentials(ctx, "desk@clinic.test", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = svc.VerifyCredentials(ctx, "nobody@clinic.test", "secret1")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	var verr *domain.ValidationError
	assert.ErrorAs(t, svc.ChangePassword(ctx, created.ID, "abc"), &verr)
	require.NoError(t, svc.ChangePassword(ctx, created.ID, "new-secret"))
	_, err = svc.VerifyCredentials(ctx, "desk@clinic.test", "new-secret")
	assert.NoError(t, err)
}

func TestAuthService_LoginAndLogout(t *testing.T) {
	ctx := context.Background()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	accounts, _ := newAccounts(t)
	_, err = accounts.CreateUser(ctx, domain.NewUser{Name: "Dr. Grey", Email: "grey@clinic.test", Role: domain.RoleDoctor, Password: "secret1"})
	require.NoError(t, err)

	tokens := mocks.NewMockTokenStore()
	auth := services.NewAuthService(accounts, tokens, key, time.Hour)

	session, err := auth.Login(ctx, "grey@clinic.test", "secret1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleDoctor, session.User.Role)

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(session.Token, claims, func(t *jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	assert.Equal(t, "Doctor", claims["role"])
	jti, _ := claims["jti"].(string)
	require.NotEmpty(t, jti)

	require.NoError(t, auth.Logout(ctx, jti, session.ExpiresAt))
	revoked, _ := tokens.IsRevoked(ctx, jti)
	assert.True(t, revoked)
	ttl, _ := tokens.TTL(jti)
	assert.InDelta(t, time.Hour.Seconds(), ttl.Seconds(), 5)

	_, err = auth.Login(ctx, "grey@clinic.test", "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	// An already expired token needs no revocation entry.
	require.NoError(t, auth.Logout(ctx, "old", time.Now().Add(-time.Minute)))
	_, stored := tokens.TTL("old")
	assert.False(t, stored)
}

func newAdvisory(t *testing.T, seed ...domain.Patient) (*services.AdvisoryService, *mocks.MockAdvisoryClient, *roster.Roster) {
	t.Helper()
	repo := mocks.NewMockPatientRepository()
	repo.Seed(seed...)
	r := roster.New(repo, lifecycle.NewEngine(nil))
	require.NoError(t, r.Load(context.Background()))
	client := mocks.NewMockAdvisoryClient()
	return services.NewAdvisoryService(r, client, zerolog.Nop()), client, r
}

func TestAdvisoryService_SuggestDiagnosis(t *testing.T) {
	at := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	triaged := mocks.TriagedPatient("p-1", at)
	triaged.MedicalHistory = "Penicillin allergy"

	t.Run("attaches_suggestion_without_status_change", func(t *testing.T) {
		svc, client, r := newAdvisory(t, triaged)

		got, err := svc.SuggestDiagnosis(context.Background(), "p-1")
		require.NoError(t, err)
		r.Wait()

		assert.Equal(t, client.Suggestion, got.AISuggestedDiagnosis)
		assert.Equal(t, domain.StatusWaitingForDoctor, got.Status)
		require.Len(t, client.SuggestCalls, 1)
		assert.Equal(t, mocks.FullVitals.Summary(), client.SuggestCalls[0].Vitals)
		assert.Equal(t, "Penicillin allergy", client.SuggestCalls[0].MedicalHistory)
	})

	t.Run("service_failure_leaves_patient_unchanged", func(t *testing.T) {
		svc, client, r := newAdvisory(t, triaged)
		client.SuggestError = errors.New("quota exceeded")

		_, err := svc.SuggestDiagnosis(context.Background(), "p-1")
		var serr *domain.ExternalServiceError
		require.ErrorAs(t, err, &serr)

		got, _ := r.Get("p-1")
		assert.Empty(t, got.AISuggestedDiagnosis)
		assert.False(t, r.Pending("p-1"))
	})

	t.Run("requires_triage_data", func(t *testing.T) {
		svc, client, _ := newAdvisory(t, mocks.WaitingPatient("p-2", at))

		_, err := svc.SuggestDiagnosis(context.Background(), "p-2")
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Violations, 2)
		assert.Empty(t, client.SuggestCalls)
	})
}

func TestAdvisoryService_MedicationInfo(t *testing.T) {
	svc, client, _ := newAdvisory(t)

	_, err := svc.MedicationInfo(context.Background(), "   ")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Zero(t, client.InfoCallCount())

	info, err := svc.MedicationInfo(context.Background(), " Paracetamol ")
	require.NoError(t, err)
	assert.Equal(t, client.Info, info)
	assert.Equal(t, []string{"Paracetamol"}, client.InfoCalls)

	client.InfoError = errors.New("timeout")
	_, err = svc.MedicationInfo(context.Background(), "Ibuprofen")
	var serr *domain.ExternalServiceError
	assert.ErrorAs(t, err, &serr)
}
