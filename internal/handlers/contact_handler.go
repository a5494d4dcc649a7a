package handlers

import (
	"log"

	"pasar/internal/models"
	"pasar/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ContactHandler handles contact-form submissions.
type ContactHandler struct {
	service  *services.ContactService
	validate *validator.Validate
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service *services.ContactService) *ContactHandler {
	return &ContactHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the contact routes with the Fiber app.
func (h *ContactHandler) RegisterRoutes(router fiber.Router) {
	contactRoutes := router.Group("/contact")
	contactRoutes.Post("/send", h.HandleSend)
}

// HandleSend validates a submission and forwards it for delivery.
func (h *ContactHandler) HandleSend(c *fiber.Ctx) error {
	var msg models.ContactMessage
	if err := c.BodyParser(&msg); err != nil {
		log.Printf("Error parsing contact request body: %v", err)
		return fail(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.validate.Struct(msg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  formatValidationErrors(err),
		})
	}

	if err := h.service.Submit(msg); err != nil {
		log.Printf("Error forwarding contact message: %v", err)
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Message sent successfully",
	})
}
