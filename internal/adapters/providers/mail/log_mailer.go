package mail

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spottica/backend/internal/domain/providers"
)

// LogMailer writes outbound mail to the log. Used when no mail URL is configured.
type LogMailer struct {
	logger zerolog.Logger
}

func NewLogMailer(logger zerolog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(_ context.Context, mail providers.Mail) error {
	m.logger.Info().
		Str("to", mail.To).
		Str("subject", mail.Subject).
		Str("body", mail.Body).
		Msg("mail delivery disabled; logging message")
	return nil
}

// New returns a shoutrrr mailer for serviceURL, or a LogMailer when it is empty
func New(serviceURL string) (providers.Mailer, error) {
	if serviceURL == "" {
		return NewLogMailer(log.Logger), nil
	}
	return NewShoutrrrMailer(serviceURL)
}
