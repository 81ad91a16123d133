package ports

import (
	"context"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
)

const (
	CollectionPatients = "patients"
	CollectionUsers    = "users"
)

// Document is a schemaless record as held by the document store.
// The identity lives under the "_id" key.
type Document map[string]any

// Filter matches documents whose top-level fields equal the given values.
type Filter map[string]any

// DocumentStore is the persistence boundary. It offers no transactions
// across documents and no schema enforcement.
type DocumentStore interface {
	FindAll(ctx context.Context, collection string) ([]Document, error)
	// FindOne returns nil and no error when nothing matches.
	FindOne(ctx context.Context, collection string, filter Filter) (Document, error)
	InsertOne(ctx context.Context, collection string, doc Document) (string, error)
	UpdateOne(ctx context.Context, collection string, filter Filter, set Document) (int64, error)
	DeleteOne(ctx context.Context, collection string, filter Filter) (int64, error)
	Ping(ctx context.Context) error
}

type PatientRepository interface {
	List(ctx context.Context) ([]domain.Patient, error)
	Get(ctx context.Context, id string) (*domain.Patient, error)
	Create(ctx context.Context, patient domain.Patient) (domain.Patient, error)
	// Update applies the patch only if the stored version still matches and
	// returns the new version.
	Update(ctx context.Context, id string, version int64, patch domain.Patch) (int64, error)
}

type UserRepository interface {
	List(ctx context.Context) ([]domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	HasRole(ctx context.Context, role domain.Role) (bool, error)
	Create(ctx context.Context, user domain.User) (domain.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}
