package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"
	"todoreminder/internal/application/dto"
	"todoreminder/internal/domain/entity"
	"todoreminder/internal/domain/repository"
	"todoreminder/internal/pkg/clock"
	appErrors "todoreminder/internal/pkg/errors" // Alias to avoid collision
	"todoreminder/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// LineLinkCodeTTL is how long a LINE link code stays valid.
const LineLinkCodeTTL = 10 * time.Minute

type userService struct {
	userRepo repository.UserRepository
	clock    clock.Clock
	log      logger.Logger
}

// NewUserService creates a new instance of UserService implementation. A nil
// clk uses the real clock.
func NewUserService(userRepo repository.UserRepository, clk clock.Clock, log logger.Logger) UserService {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	return &userService{
		userRepo: userRepo,
		clock:    clk,
		log:      log,
	}
}

// GetUser finds a user by ID. Inactive users are reported as missing.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user %s is inactive", appErrors.ErrUserNotFound, id)
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*entity.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", appErrors.ErrValidation)
	}
	if err := s.checkEmailFree(ctx, email); err != nil {
		return nil, err
	}

	user := &entity.User{
		Email:    email,
		FullName: req.FullName,
		IsActive: true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		s.log.Error("Failed to create user", err)
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Created user %s", user.ID))
	return user, nil
}

// EnsureSuperuser returns the existing user for email, or creates it as an
// active superuser.
func (s *userService) EnsureSuperuser(ctx context.Context, email string) (*entity.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: superuser email is required", appErrors.ErrValidation)
	}
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil {
		s.log.Debug(fmt.Sprintf("Superuser %s already exists", email))
		return existing, nil
	}
	if !errors.Is(err, appErrors.ErrUserNotFound) {
		return nil, err
	}

	user := &entity.User{Email: email, IsActive: true, IsSuperuser: true}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Created first superuser %s", email))
	return user, nil
}

// IssueLineLinkCode replaces any pending code of the user with a fresh one.
func (s *userService) IssueLineLinkCode(ctx context.Context, userID uuid.UUID) (*dto.LineLinkCodeResponse, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	code, err := newLinkCode()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to generate link code: %v", appErrors.ErrInternalServer, err)
	}
	expires := clock.Now(s.clock).Add(LineLinkCodeTTL)
	user.LineLinkCode = &code
	user.LineLinkExpiresAt = &expires
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error(fmt.Sprintf("Failed to store LINE link code for user %s", user.ID), err)
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Issued LINE link code for user %s", user.ID))
	return &dto.LineLinkCodeResponse{Code: code, ExpiresAt: expires}, nil
}

// LinkLineAccount moves lineUserID to the user holding code. The code is
// single use. A LINE account links to at most one user.
func (s *userService) LinkLineAccount(ctx context.Context, code, lineUserID string) (*entity.User, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || lineUserID == "" {
		return nil, fmt.Errorf("%w: link code and LINE user ID are required", appErrors.ErrValidation)
	}
	user, err := s.userRepo.FindByLineLinkCode(ctx, code)
	if err != nil {
		if errors.Is(err, appErrors.ErrUserNotFound) {
			return nil, appErrors.ErrLinkCodeInvalid
		}
		return nil, err
	}
	if user.LineLinkExpiresAt == nil || !clock.Now(s.clock).Before(*user.LineLinkExpiresAt) {
		user.LineLinkCode, user.LineLinkExpiresAt = nil, nil
		if err := s.userRepo.Update(ctx, user); err != nil {
			s.log.Error(fmt.Sprintf("Failed to clear expired link code for user %s", user.ID), err)
		}
		return nil, appErrors.ErrLinkCodeInvalid
	}

	previous, err := s.userRepo.FindByLineUserID(ctx, lineUserID)
	switch {
	case err == nil && previous.ID != user.ID:
		previous.LineUserID = nil
		if err := s.userRepo.Update(ctx, previous); err != nil {
			return nil, err
		}
		s.log.Info(fmt.Sprintf("Moved LINE account from user %s", previous.ID))
	case err != nil && !errors.Is(err, appErrors.ErrUserNotFound):
		return nil, err
	}

	user.LineUserID = &lineUserID
	user.LineLinkCode, user.LineLinkExpiresAt = nil, nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		s.log.Error(fmt.Sprintf("Failed to link LINE account for user %s", user.ID), err)
		return nil, err
	}
	s.log.Info(fmt.Sprintf("Linked LINE account to user %s", user.ID))
	return user, nil
}

func (s *userService) UnlinkLineAccount(ctx context.Context, lineUserID string) error {
	user, err := s.userRepo.FindByLineUserID(ctx, lineUserID)
	if err != nil {
		return err
	}
	user.LineUserID = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	s.log.Info(fmt.Sprintf("Unlinked LINE account from user %s", user.ID))
	return nil
}

func (s *userService) checkEmailFree(ctx context.Context, email string) error {
	_, err := s.userRepo.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return appErrors.ErrEmailTaken
	case errors.Is(err, appErrors.ErrUserNotFound):
		return nil
	default:
		return err
	}
}

// newLinkCode returns 8 random base32 characters.
func newLinkCode() (string, error) {
	b := make([]byte, 5)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base32.StdEncoding.EncodeToString(b), nil
}
