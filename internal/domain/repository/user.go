package repository

import (
	"context"
	"todoreminder/internal/domain/entity"

	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// FindByEmail retrieves a user by email address.
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	// FindByLineUserID retrieves the user linked to a LINE account.
	FindByLineUserID(ctx context.Context, lineUserID string) (*entity.User, error)
	// FindByLineLinkCode retrieves the user holding a pending LINE link code.
	FindByLineLinkCode(ctx context.Context, code string) (*entity.User, error)
	// Create creates a new user.
	Create(ctx context.Context, user *entity.User) error
	// Update updates an existing user.
	Update(ctx context.Context, user *entity.User) error
}
