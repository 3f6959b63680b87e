// Package mailer delivers transactional email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"time"

	"accountd/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

// Sender delivers account email.
type Sender interface {
	SendVerificationEmail(ctx context.Context, toEmail, verifyURL string) error
}

const subjectVerification = "Verify your email address"

var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
  <body style="font-family: sans-serif; color: #1a1a1a;">
    <h2>Verify your email address</h2>
    <p>Click the button below to confirm this email address for your account.</p>
    <p><a href="{{.VerifyURL}}" style="display:inline-block;padding:10px 20px;background:#2563eb;color:#fff;text-decoration:none;border-radius:6px;">Verify email</a></p>
    <p>If you did not create this account, you can ignore this message.</p>
  </body>
</html>`))

// SMTPSender implements Sender using a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) SendVerificationEmail(ctx context.Context, toEmail, verifyURL string) error {
	var body bytes.Buffer
	if err := verificationTemplate.Execute(&body, struct{ VerifyURL string }{VerifyURL: verifyURL}); err != nil {
		return fmt.Errorf("render verification email: %w", err)
	}
	return s.send(ctx, toEmail, subjectVerification, body.String())
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

// LogSender logs instead of sending. Used when email delivery is disabled.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendVerificationEmail(_ context.Context, toEmail, verifyURL string) error {
	s.log.Info("verification email (delivery disabled)", "to", toEmail, "url", verifyURL)
	return nil
}
