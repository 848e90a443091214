package sqlite

import (
	"context"
	"errors"
	"fmt"
	"time"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/domain/repository"
	"todoreminder/internal/pkg/clock"
	appErrors "todoreminder/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type todoRepository struct {
	db *gorm.DB
}

// NewTodoRepository creates a new instance of TodoRepository.
func NewTodoRepository(db *gorm.DB) repository.TodoRepository {
	return &todoRepository{db: db}
}

// FindByID retrieves a todo by its ID.
func (r *todoRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Todo, error) {
	var todo entity.Todo
	if err := r.db.WithContext(ctx).First(&todo, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: todo %s", appErrors.ErrTodoNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to find todo %s: %v", appErrors.ErrDatabaseOperation, id, err)
	}
	todo.DueTime = clock.Normalize(todo.DueTime)
	return &todo, nil
}

// FindByOwner retrieves a page of todos for an owner ordered by due time.
func (r *todoRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit int) ([]*entity.Todo, error) {
	var todos []*entity.Todo
	if err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("due_time asc").
		Offset(offset).
		Limit(limit).
		Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to find todos for owner %s: %v", appErrors.ErrDatabaseOperation, ownerID, err)
	}
	normalizeAll(todos)
	return todos, nil
}

// CountByOwner counts the todos of an owner.
func (r *todoRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entity.Todo{}).Where("owner_id = ?", ownerID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("%w: failed to count todos for owner %s: %v", appErrors.ErrDatabaseOperation, ownerID, err)
	}
	return count, nil
}

// FindDueBetween retrieves todos with after < due_time <= until.
func (r *todoRepository) FindDueBetween(ctx context.Context, after, until time.Time) ([]*entity.Todo, error) {
	var todos []*entity.Todo
	if err := r.db.WithContext(ctx).
		Where("due_time > ? AND due_time <= ?", clock.Normalize(after), clock.Normalize(until)).
		Order("due_time asc").
		Find(&todos).Error; err != nil {
		return nil, fmt.Errorf("%w: failed to find todos due in (%v, %v]: %v", appErrors.ErrDatabaseOperation, after, until, err)
	}
	normalizeAll(todos)
	return todos, nil
}

// Create creates a new todo.
func (r *todoRepository) Create(ctx context.Context, todo *entity.Todo) error {
	todo.DueTime = clock.Normalize(todo.DueTime)
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("%w: failed to create todo for owner %s: %v", appErrors.ErrDatabaseOperation, todo.OwnerID, err)
	}
	return nil
}

// Update writes every field of an existing todo. A todo deleted in the
// meantime is reported as ErrTodoNotFound and is not recreated.
func (r *todoRepository) Update(ctx context.Context, todo *entity.Todo) error {
	todo.DueTime = clock.Normalize(todo.DueTime)
	res := r.db.WithContext(ctx).
		Model(&entity.Todo{}).
		Where("id = ?", todo.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(todo)
	if res.Error != nil {
		return fmt.Errorf("%w: failed to update todo %s: %v", appErrors.ErrDatabaseOperation, todo.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: todo %s", appErrors.ErrTodoNotFound, todo.ID)
	}
	return nil
}

// Delete deletes a todo by its ID.
func (r *todoRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&entity.Todo{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("%w: failed to delete todo %s: %v", appErrors.ErrDatabaseOperation, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: todo %s", appErrors.ErrTodoNotFound, id)
	}
	return nil
}

func normalizeAll(todos []*entity.Todo) {
	for _, t := range todos {
		t.DueTime = clock.Normalize(t.DueTime)
	}
}
