package handler

import (
	"fmt"
	"net/http"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/application/service"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TodoHandler serves the todo CRUD endpoints and the admin hydration trigger.
type TodoHandler struct {
	todoService service.TodoService
	log         logger.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(todoService service.TodoService, log logger.Logger) *TodoHandler {
	return &TodoHandler{todoService: todoService, log: log}
}

// List handles GET /todos?skip=&limit=.
func (h *TodoHandler) List(c echo.Context) error {
	var req dto.ListTodosRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	page, err := h.todoService.ListTodos(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, page)
}

// Get handles GET /todos/:id.
func (h *TodoHandler) Get(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return respondError(c, err)
	}
	todo, err := h.todoService.GetTodo(c.Request().Context(), currentUser(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToTodoResponse(todo))
}

// Create handles POST /todos.
func (h *TodoHandler) Create(c echo.Context) error {
	var req dto.CreateTodoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	todo, err := h.todoService.CreateTodo(c.Request().Context(), currentUser(c), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToTodoResponse(todo))
}

// Update handles PUT /todos/:id. Omitted fields keep their value.
func (h *TodoHandler) Update(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req dto.UpdateTodoRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	todo, err := h.todoService.UpdateTodo(c.Request().Context(), currentUser(c), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToTodoResponse(todo))
}

// Delete handles DELETE /todos/:id.
func (h *TodoHandler) Delete(c echo.Context) error {
	id, err := todoID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.todoService.DeleteTodo(c.Request().Context(), currentUser(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.MessageResponse{Message: "Todo deleted successfully"})
}

// Hydrate handles POST /todos/hydrate (superuser only).
func (h *TodoHandler) Hydrate(c echo.Context) error {
	n, err := h.todoService.TriggerHydration(c.Request().Context())
	if err != nil {
		h.log.Error("Manual hydration failed", err)
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.HydrateResponse{
		Message:   fmt.Sprintf("Hydrated %d reminder(s)", n),
		Scheduled: n,
	})
}

func todoID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: todo id must be a UUID", appErrors.ErrValidation)
	}
	return id, nil
}
