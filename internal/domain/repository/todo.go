package repository

import (
	"context"
	"time"
	"todoreminder/internal/domain/entity"

	"github.com/google/uuid"
)

// TodoRepository defines the interface for todo data operations.
type TodoRepository interface {
	// FindByID retrieves a todo by its ID.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Todo, error)
	// FindByOwner retrieves a page of todos for an owner, ordered by due time.
	FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*entity.Todo, error)
	// CountByOwner counts the todos of an owner.
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	// FindDueBetween retrieves todos with after < due_time <= until (used by hydration).
	FindDueBetween(ctx context.Context, after, until time.Time) ([]*entity.Todo, error)
	// Create creates a new todo.
	Create(ctx context.Context, todo *entity.Todo) error
	// Update updates an existing todo.
	Update(ctx context.Context, todo *entity.Todo) error
	// Delete deletes a todo by its ID.
	Delete(ctx context.Context, id uuid.UUID) error
}
