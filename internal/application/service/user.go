package service

import (
	"context"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/entity"

	"github.com/google/uuid"
)

// UserService defines the interface for user-related business logic.
type UserService interface {
	// GetUser finds a user by ID. Returns ErrUserNotFound if missing.
	GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	// CreateUser registers a user. Returns ErrEmailTaken for a duplicate email.
	CreateUser(ctx context.Context, req dto.CreateUserRequest) (*entity.User, error)
	// IssueLineLinkCode gives the user a short-lived code to send to the LINE bot.
	IssueLineLinkCode(ctx context.Context, userID uuid.UUID) (*dto.LineLinkCodeResponse, error)
	// LinkLineAccount stores lineUserID on the user holding code. Returns
	// ErrLinkCodeInvalid for an unknown or expired code.
	LinkLineAccount(ctx context.Context, code, lineUserID string) (*entity.User, error)
	// UnlinkLineAccount clears the LINE account from whichever user holds it.
	UnlinkLineAccount(ctx context.Context, lineUserID string) error
	// EnsureSuperuser creates the bootstrap superuser if no user has email yet.
	EnsureSuperuser(ctx context.Context, email string) (*entity.User, error)
}
