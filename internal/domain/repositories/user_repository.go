package repositories

import (
	"context"

	"github.com/carebridge/telehealth-backend/internal/domain/entities"
)

// UserFilter narrows user listings
type UserFilter struct {
	Role   entities.Role
	Limit  int
	Offset int
}

// UserRepository defines data access for user accounts
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	// Deactivate soft-deletes the account; users are never hard-deleted.
	Deactivate(ctx context.Context, id string) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
}
