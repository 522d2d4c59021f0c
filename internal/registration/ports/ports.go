// Package ports declares the interfaces the registration pipeline depends
// on, so the service layer can be exercised against fakes.
package ports

import (
	"context"
	"time"

	"admission_portal_backend/internal/salesforce"
)

// CRM is the slice of the Salesforce client the pipeline uses.
type CRM interface {
	Query(ctx context.Context, soql string) ([]salesforce.Record, error)
	Create(ctx context.Context, objectType string, fields salesforce.Record, opts ...salesforce.CallOption) (salesforce.SaveResult, error)
	Update(ctx context.Context, objectType, id string, fields salesforce.Record, opts ...salesforce.CallOption) error
	Retrieve(ctx context.Context, objectType, id string, fields []string) (salesforce.Record, error)
	ConvertLead(ctx context.Context, leadID, convertedStatus string) (salesforce.ConvertResult, error)
}

// Clock abstracts time for the conversion poll loop. Sleep returns early
// with the context's error when the context is cancelled.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// RealClock is the production clock.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// AttemptRecord is one registration attempt as persisted for audit.
type AttemptRecord struct {
	RequestID     string
	Email         string
	Phone         string
	Path          string
	LeadID        string
	AccountID     string
	OpportunityID string
	TimedOut      bool
	FailureReason string
}

// Journal persists registration attempts. Implementations must never fail
// the registration itself; callers log and continue on error.
type Journal interface {
	RecordAttempt(ctx context.Context, rec AttemptRecord) error
}

// ReconcileScheduler enqueues a later re-check of a lead whose conversion
// timed out before automation confirmed.
type ReconcileScheduler interface {
	ScheduleLeadCheck(ctx context.Context, leadID, accountID, opportunityID string) error
}

// CompletedEvent is published after a registration finishes.
type CompletedEvent struct {
	AccountID     string
	OpportunityID string
	Email         string
	FirstName     string
	LastName      string
}

// EventPublisher fans registration completions out to subscribers.
type EventPublisher interface {
	PublishRegistrationCompleted(ctx context.Context, ev CompletedEvent)
}
