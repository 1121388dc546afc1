package notification

import (
	"context"
	"fmt"

	"example.com/guardian/services/monitor/config"
	"example.com/guardian/services/monitor/internal/models"

	"gopkg.in/gomail.v2"
)

// EmailChannel delivers alerts over SMTP
type EmailChannel struct {
	dialer    *gomail.Dialer
	fromName  string
	fromEmail string
}

// NewEmailChannel creates an SMTP-backed delivery channel
func NewEmailChannel(cfg config.SMTPConfig) *EmailChannel {
	return &EmailChannel{
		dialer:    gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
	}
}

// Method returns the notification method this channel records
func (e *EmailChannel) Method() models.NotificationMethod {
	return models.MethodEmail
}

// Deliver sends the alert email. gomail has no context support, so the send
// runs in a goroutine and the context deadline abandons it; an abandoned
// send that later succeeds is re-recorded as a failure and retried by the
// follow-up worker, which tolerates duplicate emails.
func (e *EmailChannel) Deliver(ctx context.Context, msg *AlertMessage) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", e.fromEmail, e.fromName)
	m.SetHeader("To", msg.CaregiverEmail)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)
	m.AddAlternative("text/html", msg.HTML)

	done := make(chan error, 1)
	go func() {
		done <- e.dialer.DialAndSend(m)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp delivery to %s failed: %w", msg.CaregiverEmail, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp delivery to %s abandoned: %w", msg.CaregiverEmail, ctx.Err())
	}
}
