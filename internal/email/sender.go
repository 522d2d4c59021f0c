// Package email sends transactional mail to applicants. Delivery is
// optional; deployments without SMTP credentials fall back to the noop
// sender and registration proceeds unchanged.
package email

import (
	"context"

	"admission_portal_backend/platform/config"
)

type Sender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, firstName, portalURL string) error
}

type NoopSender struct{}

func (NoopSender) SendWelcomeEmail(ctx context.Context, toEmail, firstName, portalURL string) error {
	return nil
}

// NewSender returns the SMTP sender when mail is configured, otherwise
// the noop sender.
func NewSender(cfg config.EmailConfig) Sender {
	if !cfg.IsEmailEnabled() {
		return NoopSender{}
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}
