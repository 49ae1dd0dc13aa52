// Package mailer sends transactional email through SendGrid.
package mailer

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

// Message is a single-recipient email.
type Message struct {
	ToName    string
	ToAddress string
	Subject   string
	PlainText string
	HTML      string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SendGrid delivers mail through the SendGrid v3 API.
type SendGrid struct {
	client *sendgrid.Client
	from   *mail.Email
}

// NewSendGrid builds a SendGrid sender.
func NewSendGrid(apiKey, fromName, fromAddress string) *SendGrid {
	return &SendGrid{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail(fromName, fromAddress),
	}
}

// Send posts msg to SendGrid and treats any non-2xx status as an error.
func (s *SendGrid) Send(ctx context.Context, msg Message) error {
	return send(ctx, s.client, build(s.from, msg))
}

func build(from *mail.Email, msg Message) *mail.SGMailV3 {
	message := mail.NewV3Mail()
	message.From = from
	message.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail(msg.ToName, msg.ToAddress))
	message.AddPersonalizations(personalization)

	message.AddContent(mail.NewContent("text/plain", msg.PlainText))
	if msg.HTML != "" {
		message.AddContent(mail.NewContent("text/html", msg.HTML))
	}
	return message
}

func send(ctx context.Context, client *sendgrid.Client, message *mail.SGMailV3) error {
	resp, err := client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("while sending mail through SendGrid: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("non-2XX response while sending mail through SendGrid: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}

// Log is the sender used when no API key is configured; it only logs.
type Log struct {
	logger *zap.Logger
}

// NewLog builds a logging sender.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Send logs the message envelope.
func (l *Log) Send(_ context.Context, msg Message) error {
	l.logger.Info("mail delivery disabled", zap.String("to", msg.ToAddress), zap.String("subject", msg.Subject))
	return nil
}
