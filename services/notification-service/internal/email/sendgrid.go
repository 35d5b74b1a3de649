package email

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridSender is the production provider, selected with
// EMAIL_PROVIDER=sendgrid.
type SendGridSender struct {
	client   *sendgrid.Client
	from     *mail.Email
	fromName string
}

func NewSendGridSender(apiKey, fromAddr, fromName string) *SendGridSender {
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddr),
	}
}

func (s *SendGridSender) ProviderID() string {
	return "sendgrid"
}

func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewSingleEmail(s.from, msg.Subject, mail.NewEmail("", msg.To), msg.Body, "")
	if msg.ICS != "" {
		att := mail.NewAttachment()
		att.SetContent(base64.StdEncoding.EncodeToString([]byte(msg.ICS)))
		att.SetType("text/calendar")
		att.SetFilename("appointment.ics")
		att.SetDisposition("attachment")
		m.AddAttachment(att)
	}

	resp, err := s.client.SendWithContext(ctx, m)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid returned %d", resp.StatusCode)
	}
	return nil
}
