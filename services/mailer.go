package services

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"

	"github.com/JavierABADdelMolino/TASKLY-sub000/config"
	"go.uber.org/zap"
)

// Mailer sends the transactional emails of the app.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, link string) error
}

// SMTPMailer sends mail through a plain-auth SMTP relay. Without a configured
// host it only logs the message, which is enough for local development.
type SMTPMailer struct {
	cfg config.SMTPConfig
	log *zap.Logger
}

// NewSMTPMailer creates a mailer. Without SMTP_HOST it only logs links.
func NewSMTPMailer(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, log: logger}
}

// SendPasswordReset mails the reset link to the given address
func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, link string) error {
	if m.cfg.Host == "" {
		m.log.Info("SMTP not configured, password reset link not mailed", zap.String("to", to), zap.String("link", link))
		return nil
	}

	subject := "Reset your Taskly password"
	body := fmt.Sprintf("Someone asked to reset the password of your Taskly account.\n\n"+
		"Open the link below within the next hour to choose a new one:\n\n%s\n\n"+
		"If you didn't request this, you can safely ignore this email.", link)
	return m.send(ctx, to, subject, body)
}

func (m *SMTPMailer) send(ctx context.Context, to, subject, body string) error {
	if m.cfg.Port == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return errors.New("SMTP not fully configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	message := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body)

	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	if err := smtp.SendMail(addr, auth, from, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
