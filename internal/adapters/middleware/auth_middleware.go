package middleware

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

type AuthMiddleware struct {
	publicKey *rsa.PublicKey
	tokens    ports.TokenStore
	logger    zerolog.Logger
}

// NewAuthMiddleware verifies RS256 session tokens. tokens may be nil when
// no revocation store is configured.
func NewAuthMiddleware(publicKey *rsa.PublicKey, tokens ports.TokenStore, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		publicKey: publicKey,
		tokens:    tokens,
		logger:    logger,
	}
}

type contextKey string

const (
	UserIDKey      contextKey = "userID"
	RoleKey        contextKey = "role"
	TokenIDKey     contextKey = "tokenID"
	TokenExpiryKey contextKey = "tokenExpiry"
)

var AllStaff = []domain.Role{domain.RoleAdmin, domain.RoleDoctor, domain.RoleReceptionist}

func (m *AuthMiddleware) RequireRole(roles []domain.Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := m.logger.With().Str("path", r.URL.Path).Logger()

		scheme, tokenString, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || scheme != "Bearer" || tokenString == "" {
			log.Debug().Msg("missing or malformed authorization header")
			deny(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		claims := jwt.MapClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			return m.publicKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil {
			log.Debug().Err(err).Msg("token rejected")
			deny(w, http.StatusUnauthorized, "invalid token")
			return
		}

		userID, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		tokenID, _ := claims["jti"].(string)
		if userID == "" || role == "" || tokenID == "" {
			log.Debug().Msg("token is missing required claims")
			deny(w, http.StatusUnauthorized, "invalid token claims")
			return
		}

		if m.tokens != nil {
			revoked, err := m.tokens.IsRevoked(r.Context(), tokenID)
			if err != nil {
				log.Error().Err(err).Msg("revocation check failed")
				deny(w, http.StatusServiceUnavailable, "session store unavailable")
				return
			}
			if revoked {
				deny(w, http.StatusUnauthorized, "token has been revoked")
				return
			}
		}

		if !slices.Contains(roles, domain.Role(role)) {
			log.Debug().Str("role", role).Msg("role not allowed")
			deny(w, http.StatusForbidden, "forbidden")
			return
		}

		var expiry time.Time
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			expiry = exp.Time
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, RoleKey, domain.Role(role))
		ctx = context.WithValue(ctx, TokenIDKey, tokenID)
		ctx = context.WithValue(ctx, TokenExpiryKey, expiry)

		next(w, r.WithContext(ctx))
	}
}

func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}

func Role(ctx context.Context) domain.Role {
	role, _ := ctx.Value(RoleKey).(domain.Role)
	return role
}

func TokenID(ctx context.Context) string {
	id, _ := ctx.Value(TokenIDKey).(string)
	return id
}

func TokenExpiry(ctx context.Context) time.Time {
	exp, _ := ctx.Value(TokenExpiryKey).(time.Time)
	return exp
}

func deny(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
