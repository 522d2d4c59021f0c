package events

import (
	"context"

	"admission_portal_backend/internal/registration/ports"
)

// RegistrationPublisher adapts the bus to the registration pipeline's
// publisher port.
type RegistrationPublisher struct {
	bus Bus
}

func NewRegistrationPublisher(bus Bus) *RegistrationPublisher {
	return &RegistrationPublisher{bus: bus}
}

func (p *RegistrationPublisher) PublishRegistrationCompleted(ctx context.Context, ev ports.CompletedEvent) {
	if p == nil || p.bus == nil {
		return
	}
	p.bus.Publish(ctx, RegistrationCompleted{
		BaseEvent:     NewBaseEvent(),
		AccountID:     ev.AccountID,
		OpportunityID: ev.OpportunityID,
		Email:         ev.Email,
		FirstName:     ev.FirstName,
		LastName:      ev.LastName,
	})
}

// IntakePublisher adapts the bus to the intake pipeline's publisher port.
type IntakePublisher struct {
	bus Bus
}

func NewIntakePublisher(bus Bus) *IntakePublisher {
	return &IntakePublisher{bus: bus}
}

func (p *IntakePublisher) PublishWebLeadCaptured(ctx context.Context, leadID, email string) {
	if p == nil || p.bus == nil {
		return
	}
	p.bus.Publish(ctx, WebLeadCaptured{
		BaseEvent: NewBaseEvent(),
		LeadID:    leadID,
		Email:     email,
	})
}
