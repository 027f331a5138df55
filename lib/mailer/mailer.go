package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("classeviva-tools/lib/mailer")

type Config struct {
	Server       string `json:"server"`
	Port         int    `json:"port"`
	EmailAddress string `json:"email_address"`
	Password     string `json:"password"`
	// From defaults to EmailAddress.
	From string `json:"from"`
	// Tls connects with implicit TLS (usually port 465).
	Tls bool `json:"tls"`
}

type Message struct {
	To      []string
	Subject string
	Body    string
}

// Sender delivers a message, SmtpSender is the implementation used by commands.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SmtpSender struct {
	config Config
}

func NewSmtpSender(config Config) SmtpSender {
	return SmtpSender{config: config}
}

func (s SmtpSender) build(msg Message) *email.Email {
	mail := email.NewEmail()
	mail.From = s.config.From
	if mail.From == "" {
		mail.From = s.config.EmailAddress
	}
	mail.To = msg.To
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.Body)
	return mail
}

func (s SmtpSender) Send(ctx context.Context, msg Message) error {
	_, span := tracer.Start(ctx, "mailer:send")
	defer span.End()

	if len(msg.To) == 0 {
		return fmt.Errorf("no recipients")
	}

	mail := s.build(msg)
	addr := fmt.Sprintf("%s:%d", s.config.Server, s.config.Port)
	var auth smtp.Auth
	if s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.EmailAddress, s.config.Password, s.config.Server)
	}

	var err error
	if s.config.Tls {
		err = mail.SendWithTLS(addr, auth, &tls.Config{ServerName: s.config.Server})
	} else {
		err = mail.Send(addr, auth)
		if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
			err = mail.Send(addr, nil)
		}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}
