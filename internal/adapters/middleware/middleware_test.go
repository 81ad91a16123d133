package middleware

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/test/mocks"
)

func generateTestKeys(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return privateKey, &privateKey.PublicKey
}

func createTestToken(t *testing.T, key *rsa.PrivateKey, role, jti string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  "user-123",
		"role": role,
		"jti":  jti,
		"exp":  exp.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

func TestRequireRole(t *testing.T) {
	privateKey, publicKey := generateTestKeys(t)
	otherKey, _ := generateTestKeys(t)
	inAnHour := time.Now().Add(time.Hour)

	tests := []struct {
		name       string
		header     string
		revoked    []string
		checkErr   error
		wantStatus int
	}{
		{"no_header", "", nil, nil, http.StatusUnauthorized},
		{"wrong_scheme", "Basic abc", nil, nil, http.StatusUnauthorized},
		{"garbage_token", "Bearer not-a-jwt", nil, nil, http.StatusUnauthorized},
		{"expired", "Bearer " + createTestToken(t, privateKey, "Doctor", "t-1", time.Now().Add(-time.Hour)), nil, nil, http.StatusUnauthorized},
		{"foreign_key", "Bearer " + createTestToken(t, otherKey, "Doctor", "t-1", inAnHour), nil, nil, http.StatusUnauthorized},
		{"wrong_role", "Bearer " + createTestToken(t, privateKey, "Receptionist", "t-1", inAnHour), nil, nil, http.StatusForbidden},
		{"revoked", "Bearer " + createTestToken(t, privateKey, "Doctor", "t-1", inAnHour), []string{"t-1"}, nil, http.StatusUnauthorized},
		{"store_down", "Bearer " + createTestToken(t, privateKey, "Doctor", "t-1", inAnHour), nil, errors.New("redis down"), http.StatusServiceUnavailable},
		{"allowed", "Bearer " + createTestToken(t, privateKey, "Doctor", "t-1", inAnHour), nil, nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// ARRANGE
			tokens := mocks.NewMockTokenStore()
			tokens.CheckError = tt.checkErr
			for _, id := range tt.revoked {
				_ = tokens.Revoke(context.Background(), id, time.Hour)
			}
			mw := NewAuthMiddleware(publicKey, tokens, zerolog.Nop())

			var seenUser, seenToken string
			var seenRole domain.Role
			handler := mw.RequireRole([]domain.Role{domain.RoleDoctor, domain.RoleAdmin}, func(w http.ResponseWriter, r *http.Request) {
				seenUser = UserID(r.Context())
				seenRole = Role(r.Context())
				seenToken = TokenID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/patients", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			// ACT
			handler.ServeHTTP(rec, req)

			// ASSERT
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if seenUser != "user-123" || seenRole != domain.RoleDoctor || seenToken != "t-1" {
					t.Errorf("unexpected context user=%q role=%q token=%q", seenUser, seenRole, seenToken)
				}
			}
		})
	}
}

func TestCORSMiddleware(t *testing.T) {
	handler := CORSMiddleware([]string{"http://localhost:3000"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodOptions, "/patients/p-1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("expected preflight 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("unknown origin must not be allowed")
	}
	if rec.Code != http.StatusTeapot {
		t.Errorf("expected request to reach handler, got %d", rec.Code)
	}
}

func TestRecoveryAndRequestLogger(t *testing.T) {
	handler := RequestLogger(zerolog.Nop())(Recovery(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if RequestID(r.Context()) != "rid-1" {
			t.Errorf("request id not propagated")
		}
		panic("boom")
	})))

	req := httptest.NewRequest(http.MethodGet, "/patients", nil)
	req.Header.Set("X-Request-ID", "rid-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") != "rid-1" {
		t.Errorf("expected request id echoed")
	}
}
