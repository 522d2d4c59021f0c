package email

import (
	"context"

	"admission_portal_backend/internal/events"
	"admission_portal_backend/platform/logger"
)

// SubscribeWelcome sends the welcome mail whenever a registration
// completes. Mail failures are logged by the bus and never surface to
// the registrant.
func SubscribeWelcome(bus events.Bus, sender Sender, portalURL string, log *logger.Logger) {
	bus.Subscribe(events.RegistrationCompleted{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		ev, ok := event.(events.RegistrationCompleted)
		if !ok || ev.Email == "" {
			return nil
		}
		if err := sender.SendWelcomeEmail(ctx, ev.Email, ev.FirstName, portalURL); err != nil {
			return err
		}
		log.Info("welcome email sent", "account_id", ev.AccountID)
		return nil
	}))
}
