package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"pasar/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// fail writes the error envelope every failing response shares.
func fail(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

// respondError maps a domain error to its HTTP status and a safe
// message. Anything outside the taxonomy is logged in full and
// returned as a generic server error: raw driver or filesystem detail
// never reaches a client.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrValidation):
		return fail(c, fiber.StatusBadRequest, validationMessage(err))
	case errors.Is(err, models.ErrUsernameTaken):
		return fail(c, fiber.StatusBadRequest, "Username already taken")
	case errors.Is(err, models.ErrEmailTaken):
		return fail(c, fiber.StatusBadRequest, "Email already registered")
	case errors.Is(err, models.ErrDuplicate):
		return fail(c, fiber.StatusBadRequest, "Username or email already exists")
	case errors.Is(err, models.ErrInvalidID):
		return fail(c, fiber.StatusBadRequest, "Invalid ID format")
	case errors.Is(err, models.ErrSelfAction):
		return fail(c, fiber.StatusBadRequest, "Cannot delete your own account")
	case errors.Is(err, models.ErrUnsupportedImage):
		return fail(c, fiber.StatusBadRequest, "Only image files are allowed")
	case errors.Is(err, models.ErrImageTooLarge):
		return fail(c, fiber.StatusBadRequest, "Image exceeds the maximum allowed size")
	case errors.Is(err, models.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "Resource not found")
	case errors.Is(err, models.ErrInvalidCredentials):
		return fail(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, models.ErrAccountDisabled):
		return fail(c, fiber.StatusUnauthorized, "Account is disabled")
	default:
		log.Printf("Internal error: %v", err)
		return fail(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

// validationMessage strips the sentinel prefix so the client sees
// only the field-level explanation.
func validationMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), models.ErrValidation.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		msg = "Validation failed"
	}
	return msg
}

// formatValidationErrors turns validator output into a field→message
// map for the response body.
func formatValidationErrors(err error) map[string]string {
	errorMessages := make(map[string]string)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
	}
	return errorMessages
}
