package handler

import (
	"errors"
	"net/http"
	"todoreminder/internal/application/dto"
	appErrors "todoreminder/internal/pkg/errors"

	"github.com/labstack/echo/v4"
)

// errorStatus maps application errors to an HTTP status and client-facing detail.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, appErrors.ErrTodoNotFound):
		return http.StatusNotFound, "Todo not found"
	case errors.Is(err, appErrors.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, appErrors.ErrPermissionDenied):
		return http.StatusBadRequest, "Not enough permissions"
	case errors.Is(err, appErrors.ErrEmailTaken):
		return http.StatusBadRequest, "The user with this email already exists in the system."
	case errors.Is(err, appErrors.ErrLinkCodeInvalid):
		return http.StatusBadRequest, "Invalid or expired link code"
	case errors.Is(err, appErrors.ErrInvalidDateTime):
		return http.StatusUnprocessableEntity, "Invalid due_time: expected an ISO-8601 timestamp"
	case errors.Is(err, appErrors.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, appErrors.ErrNotInitialized), errors.Is(err, appErrors.ErrSchedulerStopped):
		return http.StatusInternalServerError, "Scheduler unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

func respondError(c echo.Context, err error) error {
	status, detail := errorStatus(err)
	return c.JSON(status, dto.ErrorResponse{Detail: detail})
}
