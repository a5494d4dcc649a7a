package repositories

import "pasar/internal/models"

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(user *models.User) error
	GetByEmail(email string) (*models.User, error)
	GetByID(id string) (*models.User, error)
	GetAll() ([]models.User, error)
	Update(user *models.User) error
	// UsernameInUse/EmailInUse report whether another user (excluding
	// excludeID, which may be empty) already holds the value.
	UsernameInUse(username, excludeID string) (bool, error)
	EmailInUse(email, excludeID string) (bool, error)
}
