package services

import (
	"strings"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/google/uuid"
)

// UserService handles profile and account administration.
type UserService struct {
	userRepo repositories.UserRepository
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repositories.UserRepository) *UserService {
	return &UserService{
		userRepo: userRepo,
	}
}

// GetProfile returns the user record for the given id.
func (s *UserService) GetProfile(userID string) (*models.User, error) {
	return s.userRepo.GetByID(userID)
}

// ListUsers returns every account. Passwords are never serialized.
func (s *UserService) ListUsers() ([]models.User, error) {
	return s.userRepo.GetAll()
}

// UpdateProfile patches username and/or email on the user's own
// record. Each supplied field is checked against other users before
// the write; the store's unique indexes back the check up.
func (s *UserService) UpdateProfile(userID string, patch models.ProfileUpdate) (*models.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if patch.Username != nil {
		username := strings.ToLower(strings.TrimSpace(*patch.Username))
		taken, err := s.userRepo.UsernameInUse(username, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.ErrUsernameTaken
		}
		user.Username = username
	}

	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		taken, err := s.userRepo.EmailInUse(email, userID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, models.ErrEmailTaken
		}
		user.Email = email
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// DisableUser soft-disables the target account: the record stays for
// the audit trail, the user just cannot authenticate or act anymore.
// An admin cannot disable themselves through this path. There is no
// path back to active in this service.
func (s *UserService) DisableUser(actingAdminID, targetUserID string) error {
	if actingAdminID == targetUserID {
		return models.ErrSelfAction
	}
	if _, err := uuid.Parse(targetUserID); err != nil {
		return models.ErrInvalidID
	}

	user, err := s.userRepo.GetByID(targetUserID)
	if err != nil {
		return err
	}

	user.IsActive = false
	return s.userRepo.Update(user)
}
