package providers

import "context"

// Mail is an outbound message
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers outbound mail. Callers treat delivery as fire-and-forget.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}
