package models

// ContactMessage is a contact-form submission. It is not persisted;
// validated messages are handed to the delivery queue.
type ContactMessage struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"omitempty,max=200"`
	Message string `json:"message" validate:"required"`
}
