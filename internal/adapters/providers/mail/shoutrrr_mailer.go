package mail

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"
	"github.com/spottica/backend/internal/domain/providers"
)

const sendTimeout = 10 * time.Second

// ShoutrrrMailer delivers mail through a shoutrrr service URL, normally smtp://
type ShoutrrrMailer struct {
	sender *router.ServiceRouter
}

// NewShoutrrrMailer builds a mailer for serviceURL. The recipient of each
// message is passed to the service as the toaddresses parameter.
func NewShoutrrrMailer(serviceURL string) (*ShoutrrrMailer, error) {
	sender, err := shoutrrr.CreateSender(serviceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail sender: %w", err)
	}
	sender.Timeout = sendTimeout
	sender.SetLogger(log.New(io.Discard, "", 0))
	return &ShoutrrrMailer{sender: sender}, nil
}

// Send delivers mail, returning the first service error
func (m *ShoutrrrMailer) Send(_ context.Context, mail providers.Mail) error {
	params := stypes.Params{}
	params.SetTitle(mail.Subject)
	if mail.To != "" {
		params["toaddresses"] = mail.To
	}

	for _, err := range m.sender.Send(mail.Body, &params) {
		if err != nil {
			return fmt.Errorf("failed to send mail: %w", err)
		}
	}
	return nil
}
