package core

import "net/mail"

// EmailMessage is a plain-text notification. Templated/HTML content is not
// needed for workflow notifications; BodyStr is sent as-is.
type EmailMessage struct {
	To      []mail.Address
	Subject string
	BodyStr string
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return m.BodyStr != "" }

// EmailService is any service that can send emails.
type EmailService interface {
	// SendMessages sends messages concurrently.
	SendMessages(messages ...*EmailMessage)
}
