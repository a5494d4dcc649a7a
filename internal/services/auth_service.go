package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"pasar/internal/models"
	"pasar/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, sign-in, and the issuing and
// verification of identity tokens.
type AuthService struct {
	userRepo      repositories.UserRepository
	jwtSecret     []byte
	tokenDuration time.Duration
}

// NewAuthService creates a new AuthService. The signing secret is
// injected here once at startup; an empty secret is rejected by the
// configuration layer before this point.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		jwtSecret:     []byte(jwtSecret),
		tokenDuration: 30 * 24 * time.Hour,
	}
}

// RegisterUser creates a new account. Username and email are folded
// to lowercase before any comparison. The lookups give the caller a
// field-specific message; the unique indexes in the store remain the
// authoritative duplicate guard, so a race between two concurrent
// signups still leaves exactly one record.
func (s *AuthService) RegisterUser(username, email, password string) (*models.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", models.ErrValidation)
	}

	// The HTTP layer validates the same schema for error-per-field
	// responses; this keeps any other caller inside it too.
	if len(username) < 3 || len(username) > 30 {
		return nil, fmt.Errorf("%w: username must be 3-30 characters", models.ErrValidation)
	}
	if !looksLikeEmail(email) {
		return nil, fmt.Errorf("%w: a valid email address is required", models.ErrValidation)
	}
	if len(password) < 6 {
		return nil, fmt.Errorf("%w: password must be at least 6 characters", models.ErrValidation)
	}

	if taken, err := s.userRepo.UsernameInUse(username, ""); err != nil {
		return nil, err
	} else if taken {
		return nil, models.ErrUsernameTaken
	}
	if taken, err := s.userRepo.EmailInUse(email, ""); err != nil {
		return nil, err
	} else if taken {
		return nil, models.ErrEmailTaken
	}

	// Hashing happens here, in the write path, and nowhere else: the
	// stored value is hashed exactly once.
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username: username,
		Email:    email,
		Password: string(hashedPassword),
		IsAdmin:  false,
		IsActive: true,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginUser authenticates by email and password and returns the user
// together with a freshly issued token. Unknown email, wrong
// password, and disabled account all produce the same
// ErrInvalidCredentials so the response never reveals which check
// failed.
func (s *AuthService) LoginUser(email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", models.ErrInvalidCredentials
		}
		return nil, "", err
	}

	if !user.IsActive {
		return nil, "", models.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", models.ErrInvalidCredentials
	}

	token, err := s.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GenerateToken signs a token carrying the user id and admin flag,
// valid for 30 days from issuance. Revocation is only achieved by
// disabling the account or rotating the secret.
func (s *AuthService) GenerateToken(userID string, isAdmin bool) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  userID,
		"is_admin": isAdmin,
		"iat":      now.Unix(),
		"exp":      now.Add(s.tokenDuration).Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and verifies a token, returning its claims.
// Malformed, mis-signed, and expired tokens are all plain errors to
// the caller, never a panic.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// AuthenticateToken resolves a bearer token to its user record. It
// fails for any invalid token, a user that no longer exists, or a
// disabled account.
func (s *AuthService) AuthenticateToken(tokenString string) (*models.User, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("invalid token: missing user id")
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, models.ErrAccountDisabled
	}
	return user, nil
}
