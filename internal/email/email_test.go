package email

import (
	"context"
	"strings"
	"testing"

	"admission_portal_backend/internal/events"
	"admission_portal_backend/platform/logger"
)

func TestRenderWelcomeTemplate(t *testing.T) {
	content, err := renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{
			Title:    "Pendaftaran berhasil",
			Heading:  "Selamat datang",
			CTALabel: "Lanjutkan pendaftaran",
			CTAURL:   "https://portal.example.ac.id/wizard",
		},
		FirstName: "Ani",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"Halo Ani", "https://portal.example.ac.id/wizard", "Lanjutkan pendaftaran"} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered mail missing %q", want)
		}
	}
}

type recordingSender struct {
	to        []string
	firstName string
}

func (r *recordingSender) SendWelcomeEmail(ctx context.Context, toEmail, firstName, portalURL string) error {
	r.to = append(r.to, toEmail)
	r.firstName = firstName
	return nil
}

func TestWelcomeSubscriberSendsOnCompletion(t *testing.T) {
	bus := events.NewInMemoryBus(logger.New("production"))
	sender := &recordingSender{}
	SubscribeWelcome(bus, sender, "https://portal.example.ac.id", logger.New("production"))

	bus.Publish(context.Background(), events.RegistrationCompleted{
		BaseEvent: events.NewBaseEvent(),
		AccountID: "001acc",
		Email:     "ani@example.com",
		FirstName: "Ani",
	})
	bus.Wait()

	if len(sender.to) != 1 || sender.to[0] != "ani@example.com" {
		t.Fatalf("sent to %v, want [ani@example.com]", sender.to)
	}
	if sender.firstName != "Ani" {
		t.Errorf("first name = %q", sender.firstName)
	}
}

func TestWelcomeSubscriberSkipsEmptyEmail(t *testing.T) {
	bus := events.NewInMemoryBus(logger.New("production"))
	sender := &recordingSender{}
	SubscribeWelcome(bus, sender, "https://portal.example.ac.id", logger.New("production"))

	bus.Publish(context.Background(), events.RegistrationCompleted{BaseEvent: events.NewBaseEvent()})
	bus.Wait()

	if len(sender.to) != 0 {
		t.Errorf("sent to %v, want none", sender.to)
	}
}
