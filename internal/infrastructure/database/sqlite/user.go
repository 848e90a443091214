package sqlite

import (
	"context"
	"errors"
	"fmt"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/domain/repository"
	appErrors "todoreminder/internal/pkg/errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *gorm.DB) repository.UserRepository {
	return &userRepository{db: db}
}

// FindByID retrieves a user by ID.
func (r *userRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %s", appErrors.ErrUserNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to find user %s: %v", appErrors.ErrDatabaseOperation, id, err)
	}
	return &user, nil
}

// FindByEmail retrieves a user by email address.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user with email %s", appErrors.ErrUserNotFound, email)
		}
		return nil, fmt.Errorf("%w: failed to find user by email %s: %v", appErrors.ErrDatabaseOperation, email, err)
	}
	return &user, nil
}

// FindByLineUserID retrieves the user linked to a LINE account.
func (r *userRepository) FindByLineUserID(ctx context.Context, lineUserID string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("line_user_id = ?", lineUserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no user linked to LINE account %s", appErrors.ErrUserNotFound, lineUserID)
		}
		return nil, fmt.Errorf("%w: failed to find user by LINE account: %v", appErrors.ErrDatabaseOperation, err)
	}
	return &user, nil
}

// FindByLineLinkCode retrieves the user holding a pending LINE link code.
func (r *userRepository) FindByLineLinkCode(ctx context.Context, code string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("line_link_code = ?", code).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no user holds that link code", appErrors.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%w: failed to find user by link code: %v", appErrors.ErrDatabaseOperation, err)
	}
	return &user, nil
}

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("%w: failed to create user %s: %v", appErrors.ErrDatabaseOperation, user.Email, err)
	}
	return nil
}

// Update writes every field of an existing user, zero values included.
func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	res := r.db.WithContext(ctx).
		Model(&entity.User{}).
		Where("id = ?", user.ID).
		Select("*").
		Omit("id").
		Updates(user)
	if res.Error != nil {
		return fmt.Errorf("%w: failed to update user %s: %v", appErrors.ErrDatabaseOperation, user.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: user %s", appErrors.ErrUserNotFound, user.ID)
	}
	return nil
}
