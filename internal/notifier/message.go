package notifier

import "context"

const (
	TemplateRegistrationCode = "registration_code"
	TemplatePasswordReset    = "password_reset"
)

// Message is a notification request. Context feeds the template named by TemplateID.
type Message struct {
	Subject    string
	Recipients []string
	TemplateID string
	Context    map[string]any
}

// Email is a rendered message ready for a transport.
type Email struct {
	From    string
	To      []string
	Subject string
	HTML    string
	Text    string
}

type Transport interface {
	Deliver(ctx context.Context, email Email) error
}
