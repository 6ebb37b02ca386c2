package types

import "context"

// EmailMessage is a single outbound HTML email.
type EmailMessage struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Mailer delivers an EmailMessage through some transport.
type Mailer interface {
	Send(ctx context.Context, msg EmailMessage) error
	Name() string
}
