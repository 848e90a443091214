package dto

import (
	"time"
	"todoreminder/internal/domain/entity"

	"github.com/google/uuid"
)

// TodoResponse is the DTO for sending todo information to the client.
type TodoResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	DueTime     time.Time `json:"due_time"`
	OwnerID     uuid.UUID `json:"owner_id"`
}

// TodosResponse is a page of todos plus the owner's total count.
type TodosResponse struct {
	Data  []TodoResponse `json:"data"`
	Count int64          `json:"count"`
}

// ToTodoResponse converts an entity.Todo to a TodoResponse DTO.
func ToTodoResponse(t *entity.Todo) TodoResponse {
	return TodoResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		DueTime:     t.DueTime,
		OwnerID:     t.OwnerID,
	}
}

// ToTodoResponseList converts a slice of entity.Todo to a slice of TodoResponse DTOs.
func ToTodoResponseList(todos []*entity.Todo) []TodoResponse {
	list := make([]TodoResponse, len(todos))
	for i, t := range todos {
		list[i] = ToTodoResponse(t)
	}
	return list
}

// CreateTodoRequest is the DTO for creating a new todo. DueTime is ISO-8601;
// a value without an offset is read as UTC.
type CreateTodoRequest struct {
	Title       string  `json:"title" validate:"required,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	DueTime     string  `json:"due_time" validate:"required"`
}

// UpdateTodoRequest is the DTO for updating a todo. Nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=255"`
	DueTime     *string `json:"due_time" validate:"omitempty"`
}

// ListTodosRequest carries paging parameters.
type ListTodosRequest struct {
	Skip  int `query:"skip" validate:"min=0"`
	Limit int `query:"limit" validate:"min=0,max=1000"`
}

// HydrateResponse reports the result of an operator-triggered hydration pass.
type HydrateResponse struct {
	Message   string `json:"message"`
	Scheduled int    `json:"scheduled"`
}
