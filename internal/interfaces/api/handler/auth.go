package handler

import (
	"errors"
	"net/http"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/application/service"
	"todoreminder/internal/domain/entity"
	appErrors "todoreminder/internal/pkg/errors"
	"todoreminder/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// HeaderUserID carries the caller's identity. Token issuance lives in front
// of this service; requests arrive with the user already resolved to an ID.
const HeaderUserID = "X-User-ID"

const currentUserKey = "current_user"

// AuthMiddleware resolves the caller and stores it on the echo context.
type AuthMiddleware struct {
	userService service.UserService
	log         logger.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(userService service.UserService, log logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{userService: userService, log: log}
}

// RequireUser rejects requests without a known, active user.
func (m *AuthMiddleware) RequireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(HeaderUserID)
		if raw == "" {
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Detail: "Not authenticated"})
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Detail: "Could not validate credentials"})
		}
		user, err := m.userService.GetUser(c.Request().Context(), id)
		if err != nil {
			if errors.Is(err, appErrors.ErrUserNotFound) {
				return c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Detail: "Could not validate credentials"})
			}
			m.log.Error("Failed to resolve current user", err)
			return respondError(c, err)
		}
		c.Set(currentUserKey, user)
		return next(c)
	}
}

// RequireSuperuser must run after RequireUser.
func (m *AuthMiddleware) RequireSuperuser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user := currentUser(c)
		if user == nil || !user.IsSuperuser {
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Detail: "The user doesn't have enough privileges"})
		}
		return next(c)
	}
}

func currentUser(c echo.Context) *entity.User {
	user, _ := c.Get(currentUserKey).(*entity.User)
	return user
}
