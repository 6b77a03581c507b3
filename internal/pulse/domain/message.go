package domain

import "time"

// MessageStatus tags the handling state of a contact message.
type MessageStatus string

const (
	// StatusPending is assigned to every new submission.
	StatusPending MessageStatus = "pending"
)

// Message is a contact-form submission. Values are immutable once created;
// stores hand out copies.
type Message struct {
	ID        int64 // creation instant in Unix milliseconds, unique and increasing
	Name      string
	Email     string
	Subject   string
	Body      string
	CreatedAt time.Time
	Status    MessageStatus
}

// NewMessage builds a pending message. No field is validated; empty values are kept as-is.
func NewMessage(id int64, name, email, subject, body string, createdAt time.Time) Message {
	return Message{
		ID:        id,
		Name:      name,
		Email:     email,
		Subject:   subject,
		Body:      body,
		CreatedAt: createdAt,
		Status:    StatusPending,
	}
}

// CreatedAfter reports whether the message was created strictly after t.
func (m Message) CreatedAfter(t time.Time) bool {
	return m.CreatedAt.After(t)
}
