package services

import (
	"context"
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// Session is what a successful login hands back to the client. The role
// lets the client send the user to the matching dashboard.
type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type AuthService struct {
	verifier   ports.CredentialVerifier
	tokens     ports.TokenStore
	privateKey *rsa.PrivateKey
	ttl        time.Duration
	now        func() time.Time
}

func NewAuthService(
	verifier ports.CredentialVerifier,
	tokens ports.TokenStore,
	privateKey *rsa.PrivateKey,
	ttl time.Duration,
) *AuthService {
	return &AuthService{
		verifier:   verifier,
		tokens:     tokens,
		privateKey: privateKey,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Login checks the credentials and issues an RS256 session token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.verifier.VerifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	issued := s.now()
	expires := issued.Add(s.ttl)
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"name": user.Name,
		"role": string(user.Role),
		"jti":  uuid.NewString(),
		"iat":  issued.Unix(),
		"exp":  expires.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return nil, err
	}

	return &Session{Token: signed, ExpiresAt: expires.UTC(), User: *user}, nil
}

// Logout revokes the token until it would have expired anyway. Without a
// token store it is a no-op.
func (s *AuthService) Logout(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.now())
	if s.tokens == nil || ttl <= 0 {
		return nil
	}
	return s.tokens.Revoke(ctx, tokenID, ttl)
}
