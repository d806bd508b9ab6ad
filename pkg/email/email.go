// Package email sends outbound mail through the SMTP account configured by
// admins. The newest settings row wins, with the static config as fallback.
package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/koor-works/koor-backend/pkg/config"
	"github.com/koor-works/koor-backend/pkg/db/models"
	"github.com/koor-works/koor-backend/pkg/logger"
)

// Message is one outbound email.
type Message struct {
	To      string
	CC      []string
	Subject string
	HTML    string
}

// Sender delivers messages. The fake in tests records instead of dialing.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SettingsSource yields the active SMTP account. Returning nil means no row
// is configured and the static config applies.
type SettingsSource interface {
	ActiveSMTPSetting(ctx context.Context) (*models.SMTPSetting, error)
}

type smtpSender struct {
	cfg      config.SMTPConfig
	settings SettingsSource
	logg     *logger.Logger
}

// NewSender builds the gomail-backed sender. settings may be nil when only
// the static configuration should be used.
func NewSender(cfg config.SMTPConfig, settings SettingsSource, logg *logger.Logger) Sender {
	return &smtpSender{cfg: cfg, settings: settings, logg: logg}
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return fmt.Errorf("recipient is required")
	}

	account := s.account(ctx)
	if account.Host == "" {
		return fmt.Errorf("smtp host is not configured")
	}

	from := account.From
	if from == "" {
		from = account.Username
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", from, account.FromName)
	m.SetHeader("To", msg.To)
	if len(msg.CC) > 0 {
		m.SetHeader("Cc", msg.CC...)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	d := gomail.NewDialer(account.Host, account.Port, account.Username, account.Password)
	if account.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: account.Host}
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}
	s.logg.Info(s.logg.WithField(ctx, "subject", msg.Subject), "email sent")
	return nil
}

type smtpAccount struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

func (s *smtpSender) account(ctx context.Context) smtpAccount {
	if s.settings != nil {
		row, err := s.settings.ActiveSMTPSetting(ctx)
		if err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "loading smtp settings, falling back to config")
		} else if row != nil {
			return smtpAccount{
				Host:     row.Host,
				Port:     row.Port,
				Username: row.Username,
				Password: row.Password,
				FromName: row.FromName,
				UseTLS:   row.UseTLS,
			}
		}
	}
	return smtpAccount{
		Host:     s.cfg.Host,
		Port:     s.cfg.Port,
		Username: s.cfg.User,
		Password: s.cfg.Password,
		From:     s.cfg.From,
		UseTLS:   s.cfg.UseTLS,
	}
}
