package dto

import (
	"time"
	"todoreminder/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateUserRequest is the DTO for registering a user.
type CreateUserRequest struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	FullName *string `json:"full_name" validate:"omitempty,max=255"`
}

// LineLinkCodeResponse carries a one-time code for linking a LINE account.
type LineLinkCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the DTO for sending user information to the client.
type UserResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	IsActive    bool      `json:"is_active"`
	IsSuperuser bool      `json:"is_superuser"`
	LineLinked  bool      `json:"line_linked"`
}

// ToUserResponse converts an entity.User to a UserResponse DTO.
func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		IsActive:    u.IsActive,
		IsSuperuser: u.IsSuperuser,
		LineLinked:  u.LineUserID != nil && *u.LineUserID != "",
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// MessageResponse is a generic message body.
type MessageResponse struct {
	Message string `json:"message"`
}
