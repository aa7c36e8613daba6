// Package mail dispatches transactional email. Only the password-reset
// message exists today. When SMTP is not configured the server falls back to
// a log-only mailer so the reset flow stays exercisable in development.
package mail

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/photovault/photovault/internal/logging"
)

// Mailer delivers the password-reset message for a freshly issued token.
type Mailer interface {
	SendPasswordReset(ctx context.Context, toEmail, name, token string) error
}

// SMTPConfig holds the settings for the SMTP mailer. BaseURL is the public
// frontend origin used to build the reset link.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	BaseURL  string
}

// SMTPMailer sends mail over plain SMTP with AUTH PLAIN.
type SMTPMailer struct {
	cfg SMTPConfig
	// sendMail is a seam for testing smtp.SendMail.
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, sendMail: smtp.SendMail}
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, toEmail, name, token string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(m.cfg.BaseURL, "/"), token)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	b.WriteString("Subject: Password reset - Photovault\r\n")
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", name)
	b.WriteString("We received a request to reset the password for your account.\r\n")
	fmt.Fprintf(&b, "Open the link below to choose a new password:\r\n\r\n%s\r\n\r\n", resetURL)
	b.WriteString("The link expires in 1 hour. If you did not request this, ignore this email.\r\n")

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	return m.sendMail(addr, auth, m.cfg.From, []string{toEmail}, []byte(b.String()))
}

// LogMailer logs instead of sending. The token itself is not logged.
type LogMailer struct {
	logger logging.Logger
}

func NewLogMailer(logger logging.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendPasswordReset(ctx context.Context, toEmail, name, token string) error {
	m.logger.Info(ctx, "smtp not configured, password reset email not sent", "to", toEmail)
	return nil
}
