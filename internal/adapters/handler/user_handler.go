package handler

import (
	"context"
	"net/http"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/roster"
)

type AccountManager interface {
	CreateUser(ctx context.Context, in domain.NewUser) (domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ChangePassword(ctx context.Context, id, password string) error
	DeleteUser(ctx context.Context, id string) error
}

type UserHandler struct {
	accounts AccountManager
}

func NewUserHandler(accounts AccountManager) *UserHandler {
	return &UserHandler{accounts: accounts}
}

type PasswordRequest struct {
	Password string `json:"password"`
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.accounts.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if users == nil {
		users = []domain.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in domain.NewUser
	if !decode(w, r, &in) {
		return
	}
	user, err := h.accounts.CreateUser(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.accounts.ChangePassword(r.Context(), r.PathValue("id"), req.Password); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Password updated"})
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.DeleteUser(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type NotificationHandler struct {
	feed *roster.Feed
}

func NewNotificationHandler(feed *roster.Feed) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

func (h *NotificationHandler) Recent(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.feed.Recent())
}
