package service

import (
	"context"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/entity"

	"github.com/google/uuid"
)

// TodoService defines the interface for todo-related business logic.
type TodoService interface {
	// ListTodos returns a page of the owner's todos and their total count.
	ListTodos(ctx context.Context, owner *entity.User, req dto.ListTodosRequest) (*dto.TodosResponse, error)
	// GetTodo returns one todo owned by owner.
	GetTodo(ctx context.Context, owner *entity.User, id uuid.UUID) (*entity.Todo, error)
	// CreateTodo stores a todo and schedules its reminder when due soon.
	CreateTodo(ctx context.Context, owner *entity.User, req dto.CreateTodoRequest) (*entity.Todo, error)
	// UpdateTodo applies the non-nil fields of req and reschedules the reminder.
	UpdateTodo(ctx context.Context, owner *entity.User, id uuid.UUID, req dto.UpdateTodoRequest) (*entity.Todo, error)
	// DeleteTodo removes a todo and cancels its reminder.
	DeleteTodo(ctx context.Context, owner *entity.User, id uuid.UUID) error
	// TriggerHydration runs one hydration pass now.
	TriggerHydration(ctx context.Context) (int, error)
}
