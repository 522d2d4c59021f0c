package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/platform/logger"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.New("production"))

	var calls atomic.Int32
	for i := 0; i < 3; i++ {
		bus.Subscribe("registration.completed", HandlerFunc(func(ctx context.Context, event Event) error {
			calls.Add(1)
			return nil
		}))
	}
	bus.Subscribe("intake.web_lead.captured", HandlerFunc(func(ctx context.Context, event Event) error {
		t.Error("handler for another event must not run")
		return nil
	}))

	bus.Publish(context.Background(), RegistrationCompleted{
		BaseEvent: NewBaseEvent(),
		AccountID: "001acc",
	})
	bus.Wait()

	if got := calls.Load(); got != 3 {
		t.Errorf("handler calls = %d, want 3", got)
	}
}

func TestPublishSyncReturnsHandlerError(t *testing.T) {
	bus := NewInMemoryBus(logger.New("production"))
	want := errors.New("smtp unreachable")
	bus.Subscribe("registration.completed", HandlerFunc(func(ctx context.Context, event Event) error {
		return want
	}))

	err := bus.PublishSync(context.Background(), RegistrationCompleted{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestPublishRecoversPanickingHandler(t *testing.T) {
	bus := NewInMemoryBus(logger.New("production"))
	bus.Subscribe("registration.completed", HandlerFunc(func(ctx context.Context, event Event) error {
		panic("boom")
	}))

	// Must not crash the publisher.
	bus.Publish(context.Background(), RegistrationCompleted{BaseEvent: NewBaseEvent()})
	bus.Wait()
}

func TestRegistrationPublisherMapsTheEvent(t *testing.T) {
	bus := NewInMemoryBus(logger.New("production"))

	var got RegistrationCompleted
	bus.Subscribe("registration.completed", HandlerFunc(func(ctx context.Context, event Event) error {
		got = event.(RegistrationCompleted)
		return nil
	}))

	pub := NewRegistrationPublisher(bus)
	pub.PublishRegistrationCompleted(context.Background(), ports.CompletedEvent{
		AccountID:     "001acc",
		OpportunityID: "006opp",
		Email:         "ani@example.com",
		FirstName:     "Ani",
		LastName:      "Wijaya",
	})
	bus.Wait()

	if got.AccountID != "001acc" || got.OpportunityID != "006opp" || got.Email != "ani@example.com" {
		t.Errorf("mapped event = %+v", got)
	}
	if got.OccurredAt().IsZero() {
		t.Error("event timestamp not set")
	}
}

func TestIntakePublisherMapsTheEvent(t *testing.T) {
	bus := NewInMemoryBus(logger.New("production"))

	var got WebLeadCaptured
	bus.Subscribe("intake.web_lead.captured", HandlerFunc(func(ctx context.Context, event Event) error {
		got = event.(WebLeadCaptured)
		return nil
	}))

	pub := NewIntakePublisher(bus)
	pub.PublishWebLeadCaptured(context.Background(), "00Qlead", "budi@example.com")
	bus.Wait()

	if got.LeadID != "00Qlead" || got.Email != "budi@example.com" {
		t.Errorf("mapped event = %+v", got)
	}
	if got.OccurredAt().IsZero() {
		t.Error("event timestamp not set")
	}
}
