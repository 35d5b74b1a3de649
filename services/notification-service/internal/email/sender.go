package email

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/smtp"
	"strings"
)

// Message is one outgoing email. ICS, when set, goes out as a text/calendar
// attachment so mail clients offer an add-to-calendar action.
type Message struct {
	To      string
	Subject string
	Body    string
	ICS     string
}

type Sender interface {
	Send(ctx context.Context, msg Message) error
	ProviderID() string
}

// SMTPSender sends via unauthenticated SMTP (Mailpit-compatible); the default
// local/dev provider.
type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(host, port, from string) *SMTPSender {
	host = strings.TrimSpace(host)
	port = strings.TrimSpace(port)
	from = strings.TrimSpace(from)
	if from == "" {
		from = "no-reply@salonbook.local"
	}
	return &SMTPSender{
		addr: fmt.Sprintf("%s:%s", host, port),
		from: from,
	}
}

func (s *SMTPSender) ProviderID() string {
	return "smtp"
}

func (s *SMTPSender) Send(_ context.Context, msg Message) error {
	raw := buildMessage(s.from, msg)
	return smtp.SendMail(s.addr, nil, s.from, []string{msg.To}, []byte(raw))
}

const mimeBoundary = "salonbook-mime-boundary"

func buildMessage(from string, msg Message) string {
	var b strings.Builder
	write := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}

	write("From: " + from)
	write("To: " + msg.To)
	write("Subject: " + msg.Subject)
	write("MIME-Version: 1.0")

	if msg.ICS == "" {
		write("Content-Type: text/plain; charset=utf-8")
		write("")
		write(msg.Body)
		return b.String()
	}

	write(`Content-Type: multipart/mixed; boundary="` + mimeBoundary + `"`)
	write("")
	write("--" + mimeBoundary)
	write("Content-Type: text/plain; charset=utf-8")
	write("")
	write(msg.Body)
	write("--" + mimeBoundary)
	write(`Content-Type: text/calendar; method=REQUEST; charset=utf-8`)
	write("Content-Transfer-Encoding: base64")
	write(`Content-Disposition: attachment; filename="appointment.ics"`)
	write("")
	write(base64.StdEncoding.EncodeToString([]byte(msg.ICS)))
	write("--" + mimeBoundary + "--")
	return b.String()
}
