package handler

import (
	"fmt"
	appErrors "todoreminder/internal/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator creates a validator for the `validate` struct tags on request DTOs.
func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

func (v *RequestValidator) Validate(i interface{}) error {
	if err := v.validate.Struct(i); err != nil {
		return fmt.Errorf("%w: %v", appErrors.ErrValidation, err)
	}
	return nil
}

// bindAndValidate decodes the request into req and checks its tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request: %v", appErrors.ErrValidation, err)
	}
	return c.Validate(req)
}
