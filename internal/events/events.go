// Package events carries domain events between modules so the
// registration pipeline stays decoupled from side effects like the
// welcome email.
package events

import (
	"context"
	"time"
)

// Event is the base interface all domain events implement.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides the timestamp shared by all events.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes events to subscribed handlers.
type Bus interface {
	// Publish sends an event to all handlers for its type. Handlers run
	// asynchronously; failures are logged, never returned.
	Publish(ctx context.Context, event Event)

	// PublishSync sends an event and waits for all handlers.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the event name.
	Subscribe(eventName string, handler Handler)
}

// RegistrationCompleted is published after an applicant ends up with an
// account and an opportunity, whichever pipeline path got them there.
type RegistrationCompleted struct {
	BaseEvent
	AccountID     string `json:"accountId"`
	OpportunityID string `json:"opportunityId"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
}

func (e RegistrationCompleted) EventName() string { return "registration.completed" }

// WebLeadCaptured is published when a pre-registration inquiry lands as
// a lead.
type WebLeadCaptured struct {
	BaseEvent
	LeadID string `json:"leadId"`
	Email  string `json:"email"`
}

func (e WebLeadCaptured) EventName() string { return "intake.web_lead.captured" }
