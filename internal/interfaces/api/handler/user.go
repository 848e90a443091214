package handler

import (
	"net/http"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/application/service"
	"todoreminder/internal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// UserHandler serves user registration and profile endpoints.
type UserHandler struct {
	userService service.UserService
	log         logger.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService service.UserService, log logger.Logger) *UserHandler {
	return &UserHandler{userService: userService, log: log}
}

// Signup handles POST /users/signup.
func (h *UserHandler) Signup(c echo.Context) error {
	var req dto.CreateUserRequest
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}
	user, err := h.userService.CreateUser(c.Request().Context(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, dto.ToUserResponse(user))
}

// IssueLineCode handles POST /users/me/line-code.
func (h *UserHandler) IssueLineCode(c echo.Context) error {
	code, err := h.userService.IssueLineLinkCode(c.Request().Context(), currentUser(c).ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, code)
}

// Me handles GET /users/me.
func (h *UserHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, dto.ToUserResponse(currentUser(c)))
}
