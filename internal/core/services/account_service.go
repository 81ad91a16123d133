package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// AccountService manages staff accounts and verifies their credentials.
type AccountService struct {
	users    ports.UserRepository
	now      func() time.Time
	newID    func() string
	hashCost int
}

var _ ports.CredentialVerifier = (*AccountService)(nil)

type AccountOption func(*AccountService)

// WithHashCost lowers the bcrypt cost, which keeps tests fast.
func WithHashCost(cost int) AccountOption {
	return func(s *AccountService) { s.hashCost = cost }
}

func NewAccountService(users ports.UserRepository, opts ...AccountOption) *AccountService {
	s := &AccountService{
		users:    users,
		now:      time.Now,
		newID:    uuid.NewString,
		hashCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *AccountService) CreateUser(ctx context.Context, in domain.NewUser) (domain.User, error) {
	if err := domain.ValidateNewUser(in); err != nil {
		return domain.User{}, err
	}

	email := domain.NormalizeEmail(in.Email)
	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return domain.User{}, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return domain.User{}, domain.ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	return s.users.Create(ctx, domain.User{
		ID:           s.newID(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Role:         in.Role,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
}

// SignupAdmin creates the first administrator. It is refused once any
// admin account exists.
func (s *AccountService) SignupAdmin(ctx context.Context, name, email, password string) (domain.User, error) {
	exists, err := s.users.HasRole(ctx, domain.RoleAdmin)
	if err != nil {
		return domain.User{}, fmt.Errorf("check admin: %w", err)
	}
	if exists {
		return domain.User{}, domain.ErrAdminExists
	}
	return s.CreateUser(ctx, domain.NewUser{Name: name, Email: email, Role: domain.RoleAdmin, Password: password})
}

func (s *AccountService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *AccountService) ChangePassword(ctx context.Context, id, password string) error {
	if err := domain.ValidatePassword(password); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

func (s *AccountService) DeleteUser(ctx context.Context, id string) error {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if user.Role == domain.RoleAdmin {
		return domain.ErrAdminDeletion
	}
	return s.users.Delete(ctx, id)
}

func (s *AccountService) VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.FindByEmail(ctx, domain.NormalizeEmail(email))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}
