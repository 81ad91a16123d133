package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/adapters/middleware"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/services"
)

type Authenticator interface {
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Logout(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AdminSignup interface {
	SignupAdmin(ctx context.Context, name, email, password string) (domain.User, error)
}

type AuthHandler struct {
	auth   Authenticator
	signup AdminSignup
}

func NewAuthHandler(auth Authenticator, signup AdminSignup) *AuthHandler {
	return &AuthHandler{auth: auth, signup: signup}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message   string      `json:"message"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      domain.User `json:"user"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decode(w, r, &req) {
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      session.User,
	})
}

// Signup creates the first administrator account.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.signup.SignupAdmin(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.auth.Logout(ctx, middleware.TokenID(ctx), middleware.TokenExpiry(ctx)); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}
