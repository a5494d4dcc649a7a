package services

import (
	"fmt"
	"log"
	"strings"

	"pasar/internal/models"
)

// ContactPublisher hands a validated contact submission to the
// delivery collaborator. Implemented by pkg/rabbitmq.Client.
type ContactPublisher interface {
	PublishContactMessage(payload interface{}) error
}

// ContactService validates contact-form submissions and forwards them
// for delivery.
type ContactService struct {
	publisher ContactPublisher
}

// NewContactService creates a new ContactService. A nil publisher is
// tolerated: submissions are then validated and logged only.
func NewContactService(publisher ContactPublisher) *ContactService {
	return &ContactService{
		publisher: publisher,
	}
}

// Submit validates the message and publishes it to the contact queue.
func (s *ContactService) Submit(msg models.ContactMessage) error {
	if strings.TrimSpace(msg.Name) == "" || strings.TrimSpace(msg.Email) == "" || strings.TrimSpace(msg.Message) == "" {
		return fmt.Errorf("%w: name, email and message are required", models.ErrValidation)
	}
	if !looksLikeEmail(msg.Email) {
		return fmt.Errorf("%w: a valid email address is required", models.ErrValidation)
	}

	if s.publisher == nil {
		log.Printf("Contact publisher is not configured. Dropping message from %s.", msg.Email)
		return nil
	}

	if err := s.publisher.PublishContactMessage(msg); err != nil {
		return fmt.Errorf("failed to forward contact message: %w", err)
	}
	return nil
}

// looksLikeEmail is the basic syntactic check applied to contact
// submissions; full address validation is the mail system's job.
func looksLikeEmail(email string) bool {
	at := strings.Index(email, "@")
	if at < 1 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	return strings.Contains(domain, ".") && !strings.ContainsAny(email, " \t")
}
