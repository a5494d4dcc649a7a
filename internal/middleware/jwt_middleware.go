package middleware

import (
	"log"
	"strings"

	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/gofiber/fiber/v2"
)

// UserLocalKey is where the resolved user is stored in the request
// context by AuthRequired and OptionalAuth.
const UserLocalKey = "user"

// resolveUser reads the bearer token from the Authorization header
// and resolves it to an active user record. An empty header, a
// malformed header, an invalid or expired token, an unknown user, and
// a disabled account all fail.
func resolveUser(c *fiber.Ctx, authService *services.AuthService) (*models.User, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authorization header is required")
	}

	// Expected format: "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && strings.EqualFold(parts[0], "Bearer")) {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Authorization header format must be 'Bearer <token>'")
	}

	user, err := authService.AuthenticateToken(parts[1])
	if err != nil {
		return nil, err
	}
	return user, nil
}

// AuthRequired is a Fiber middleware that rejects requests without a
// valid bearer token for an active account. On success the resolved
// user is attached to the request context for downstream handlers.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := resolveUser(c, authService)
		if err != nil {
			log.Printf("Authentication failed: %v", err)
			message := "Invalid or expired token"
			if fe, ok := err.(*fiber.Error); ok {
				message = fe.Message
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": message,
			})
		}

		c.Locals(UserLocalKey, user)
		return c.Next()
	}
}

// AdminRequired gates admin-only operations. It must run after
// AuthRequired, which attaches the user it inspects.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, ok := c.Locals(UserLocalKey).(*models.User)
		if !ok || !user.IsAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Admin access required",
			})
		}
		return c.Next()
	}
}

// OptionalAuth attaches the user when a valid token is presented and
// silently proceeds without one otherwise. It never blocks a request.
func OptionalAuth(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user, err := resolveUser(c, authService); err == nil {
			c.Locals(UserLocalKey, user)
		}
		return c.Next()
	}
}

// CurrentUser returns the user attached by AuthRequired/OptionalAuth,
// or nil when the request is anonymous.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(UserLocalKey).(*models.User)
	return user
}
