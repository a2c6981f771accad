package email

import (
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/newscloud/classifieds-service/internal/config"
)

// Mailer sends transactional mail over SMTP.
type Mailer struct {
	cfg    *config.SMTPConfig
	dialer *gomail.Dialer
	logger *zap.Logger
}

func NewMailer(cfg *config.SMTPConfig, logger *zap.Logger) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.From == "" {
		return nil, fmt.Errorf("SMTP host, port, and from address must be configured")
	}

	return &Mailer{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		logger: logger,
	}, nil
}

func (m *Mailer) SendListingExpiredEmail(toEmail, listingTitle string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", toEmail)
	msg.SetHeader("Subject", "Your listing has expired")
	msg.SetBody("text/plain", "Your listing '"+listingTitle+"' has expired. Renew it to make it visible again.")

	if err := m.dialer.DialAndSend(msg); err != nil {
		m.logger.Error("Failed to send expiry email",
			zap.String("to", toEmail),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send expiry email: %w", err)
	}
	m.logger.Info("Expiry email sent", zap.String("to", toEmail))
	return nil
}
