package handlers

import (
	"errors"
	"log"

	"pasar/internal/middleware"
	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// UserHandler handles HTTP requests for accounts: signup, signin,
// profile, and admin user management.
type UserHandler struct {
	authService *services.AuthService
	userService *services.UserService
	validate    *validator.Validate
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService, userService *services.UserService) *UserHandler {
	return &UserHandler{
		authService: authService,
		userService: userService,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router, requireAuth, requireAdmin fiber.Handler) {
	userRoutes := router.Group("/users")

	// Authentication routes
	userRoutes.Post("/signup", h.HandleSignup)
	userRoutes.Post("/signin", h.HandleSignin)

	// Profile routes
	userRoutes.Get("/profile", requireAuth, h.HandleGetProfile)
	userRoutes.Put("/profile", requireAuth, h.HandleUpdateProfile)

	// Admin management routes
	userRoutes.Get("/", requireAuth, requireAdmin, h.HandleGetUsers)
	userRoutes.Delete("/:id", requireAuth, requireAdmin, h.HandleDisableUser)
}

// SignupRequest represents the request body for registration.
type SignupRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleSignup handles new user registration.
func (h *UserHandler) HandleSignup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing signup request body: %v", err)
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  formatValidationErrors(err),
		})
	}

	user, err := h.authService.RegisterUser(req.Username, req.Email, req.Password)
	if err != nil {
		log.Printf("Error registering user: %v", err)
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "User registered successfully",
		"user":    user,
	})
}

// SigninRequest represents the request body for sign-in.
type SigninRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleSignin authenticates a user and issues a token.
func (h *UserHandler) HandleSignin(c *fiber.Ctx) error {
	var req SigninRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing signin request body: %v", err)
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if req.Email == "" || req.Password == "" {
		return fail(c, fiber.StatusBadRequest, "Email and password required")
	}

	user, token, err := h.authService.LoginUser(req.Email, req.Password)
	if err != nil {
		log.Printf("Error during signin for %s: %v", req.Email, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Login successful",
		"user":    user,
		"token":   token,
	})
}

// HandleGetProfile returns the authenticated user's own record.
func (h *UserHandler) HandleGetProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	profile, err := h.userService.GetProfile(user.ID)
	if err != nil {
		log.Printf("Error getting profile for %s: %v", user.ID, err)
		if errors.Is(err, models.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"user":    profile,
	})
}

// UpdateProfileRequest represents the request body for a profile
// update. Absent fields are left unchanged.
type UpdateProfileRequest struct {
	Username *string `json:"username" validate:"omitempty,min=3,max=30"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

// HandleUpdateProfile patches the authenticated user's username
// and/or email.
func (h *UserHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing profile update body: %v", err)
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  formatValidationErrors(err),
		})
	}

	updated, err := h.userService.UpdateProfile(user.ID, models.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
	})
	if err != nil {
		log.Printf("Error updating profile for %s: %v", user.ID, err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Profile updated",
		"user":    updated,
	})
}

// HandleGetUsers returns every account. Admin only.
func (h *UserHandler) HandleGetUsers(c *fiber.Ctx) error {
	users, err := h.userService.ListUsers()
	if err != nil {
		log.Printf("Error listing users: %v", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(users),
		"data":    users,
	})
}

// HandleDisableUser soft-disables the target account. Admin only; an
// admin cannot disable their own account.
func (h *UserHandler) HandleDisableUser(c *fiber.Ctx) error {
	admin := middleware.CurrentUser(c)
	targetID := c.Params("id")

	if err := h.userService.DisableUser(admin.ID, targetID); err != nil {
		log.Printf("Error disabling user %s: %v", targetID, err)
		if errors.Is(err, models.ErrNotFound) {
			return fail(c, fiber.StatusNotFound, "User not found")
		}
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Account disabled",
	})
}
