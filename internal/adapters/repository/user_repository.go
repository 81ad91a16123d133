package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/domain"
	"github.com/AchilleasB/baby-kliniek/patient-workflow-service/internal/core/ports"
)

type UserRepository struct {
	store ports.DocumentStore
}

var _ ports.UserRepository = (*UserRepository)(nil)

func NewUserRepository(store ports.DocumentStore) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	docs, err := r.store.FindAll(ctx, ports.CollectionUsers)
	if err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(docs))
	for _, doc := range docs {
		u, err := decodeUser(doc)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findOne(ctx, ports.Filter{fieldEmail: domain.NormalizeEmail(email)})
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, ports.Filter{fieldID: id})
}

func (r *UserRepository) HasRole(ctx context.Context, role domain.Role) (bool, error) {
	doc, err := r.store.FindOne(ctx, ports.CollectionUsers, ports.Filter{fieldRole: string(role)})
	if err != nil {
		return false, err
	}
	return doc != nil, nil
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	user.Email = domain.NormalizeEmail(user.Email)
	existing, err := r.store.FindOne(ctx, ports.CollectionUsers, ports.Filter{fieldEmail: user.Email})
	if err != nil {
		return domain.User{}, err
	}
	if existing != nil {
		return domain.User{}, domain.ErrEmailTaken
	}

	id, err := r.store.InsertOne(ctx, ports.CollectionUsers, encodeUser(user))
	if err != nil {
		return domain.User{}, fmt.Errorf("insert user: %w", err)
	}
	user.ID = id
	return user, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	matched, err := r.store.UpdateOne(ctx, ports.CollectionUsers,
		ports.Filter{fieldID: id},
		ports.Document{fieldPasswordHash: passwordHash})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if matched == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	deleted, err := r.store.DeleteOne(ctx, ports.CollectionUsers, ports.Filter{fieldID: id})
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if deleted == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, filter ports.Filter) (*domain.User, error) {
	doc, err := r.store.FindOne(ctx, ports.CollectionUsers, filter)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	u, err := decodeUser(doc)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
