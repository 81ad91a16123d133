// Package mocks provides mock implementations of port interfaces for testing.
// In hexagonal architecture, ports define the contracts between the core domain
// and external adapters. Mocks implement these interfaces to enable isolated testing.
package mocks

import (
	"context"
	"sync"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

// UpdateCall records one call to MockPatientRepository.Update.
type UpdateCall struct {
	ID      string
	Version int64
	Patch   domain.Patch
}

// MockPatientRepository implements ports.PatientRepository in memory.
// Writes honour the version token like the real repository does.
type MockPatientRepository struct {
	mu sync.RWMutex

	patients map[string]domain.Patient

	// Call tracking for verification
	CreateCalls []domain.Patient
	UpdateCalls []UpdateCall
	ListCalls   int

	// Error injection for testing error scenarios
	ListError   error
	GetError    error
	CreateError error
	UpdateError error

	// Gate, when set, holds every Update until a value is received from it.
	Gate chan struct{}
}

var _ ports.PatientRepository = (*MockPatientRepository)(nil)

func NewMockPatientRepository() *MockPatientRepository {
	return &MockPatientRepository{
		patients: make(map[string]domain.Patient),
	}
}

// Seed stores a patient directly (for test setup).
func (m *MockPatientRepository) Seed(patients ...domain.Patient) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range patients {
		if p.Version == 0 {
			p.Version = 1
		}
		m.patients[p.ID] = p.Clone()
	}
}

// Stored returns what the repository currently holds for id.
func (m *MockPatientRepository) Stored(id string) (domain.Patient, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.patients[id]
	return p.Clone(), ok
}

// Bump simulates another user saving the record.
func (m *MockPatientRepository) Bump(id string, patch domain.Patch) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return
	}
	p = patch.ApplyTo(p)
	p.Version++
	m.patients[id] = p
}

func (m *MockPatientRepository) SetUpdateError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateError = err
}

func (m *MockPatientRepository) UpdateCallCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.UpdateCalls)
}

func (m *MockPatientRepository) List(ctx context.Context) ([]domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ListCalls++
	if m.ListError != nil {
		return nil, m.ListError
	}

	out := make([]domain.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (m *MockPatientRepository) Get(ctx context.Context, id string) (*domain.Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetError != nil {
		return nil, m.GetError
	}
	p, ok := m.patients[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	p = p.Clone()
	return &p, nil
}

func (m *MockPatientRepository) Create(ctx context.Context, patient domain.Patient) (domain.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, patient)
	if m.CreateError != nil {
		return domain.Patient{}, m.CreateError
	}

	if patient.Version == 0 {
		patient.Version = 1
	}
	m.patients[patient.ID] = patient.Clone()
	return patient.Clone(), nil
}

func (m *MockPatientRepository) Update(ctx context.Context, id string, version int64, patch domain.Patch) (int64, error) {
	m.mu.RLock()
	gate := m.Gate
	m.mu.RUnlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpdateCalls = append(m.UpdateCalls, UpdateCall{ID: id, Version: version, Patch: patch})
	if m.UpdateError != nil {
		return 0, m.UpdateError
	}

	p, ok := m.patients[id]
	if !ok {
		return 0, domain.ErrNotFound
	}
	if p.Version != version {
		return 0, domain.ErrVersionConflict
	}
	p = patch.ApplyTo(p)
	p.Version = version + 1
	m.patients[id] = p
	return p.Version, nil
}

// MockUserRepository implements ports.UserRepository for testing.
type MockUserRepository struct {
	mu sync.RWMutex

	users map[string]domain.User

	CreateCalls []domain.User
	DeleteCalls []string

	ListError   error
	FindError   error
	CreateError error
	UpdateError error
	DeleteError error
}

var _ ports.UserRepository = (*MockUserRepository)(nil)

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]domain.User),
	}
}

// SeedUser adds a user to the mock repository for test setup.
func (m *MockUserRepository) SeedUser(user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Stored(id string) (domain.User, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListError != nil {
		return nil, m.ListError
	}
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindError != nil {
		return nil, m.FindError
	}
	for _, u := range m.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindError != nil {
		return nil, m.FindError
	}
	u, ok := m.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (m *MockUserRepository) HasRole(ctx context.Context, role domain.Role) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.FindError != nil {
		return false, m.FindError
	}
	for _, u := range m.users {
		if u.Role == role {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockUserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, user)
	if m.CreateError != nil {
		return domain.User{}, m.CreateError
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.UpdateError != nil {
		return m.UpdateError
	}
	u, ok := m.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	u.PasswordHash = passwordHash
	m.users[id] = u
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)
	if m.DeleteError != nil {
		return m.DeleteError
	}
	if _, ok := m.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.users, id)
	return nil
}
