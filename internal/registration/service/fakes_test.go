package service

import (
	"context"
	"strings"
	"time"

	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/logger"
)

var testLog = logger.New("production")

type objCall struct {
	objectType string
	id         string
	fields     salesforce.Record
}

// fakeCRM scripts responses per operation and records every call.
type fakeCRM struct {
	queryFn    func(soql string) ([]salesforce.Record, error)
	createFn   func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error)
	updateFn   func(objectType, id string, fields salesforce.Record) error
	retrieveFn func(objectType, id string) (salesforce.Record, error)
	convertFn  func(leadID string) (salesforce.ConvertResult, error)

	queries   []string
	creates   []objCall
	updates   []objCall
	retrieves []objCall
	converts  []string
}

func (f *fakeCRM) Query(_ context.Context, soql string) ([]salesforce.Record, error) {
	f.queries = append(f.queries, soql)
	if f.queryFn != nil {
		return f.queryFn(soql)
	}
	return nil, nil
}

func (f *fakeCRM) Create(_ context.Context, objectType string, fields salesforce.Record, _ ...salesforce.CallOption) (salesforce.SaveResult, error) {
	f.creates = append(f.creates, objCall{objectType: objectType, fields: fields})
	if f.createFn != nil {
		return f.createFn(objectType, fields)
	}
	return salesforce.SaveResult{ID: objectType + "-id", Success: true}, nil
}

func (f *fakeCRM) Update(_ context.Context, objectType, id string, fields salesforce.Record, _ ...salesforce.CallOption) error {
	f.updates = append(f.updates, objCall{objectType: objectType, id: id, fields: fields})
	if f.updateFn != nil {
		return f.updateFn(objectType, id, fields)
	}
	return nil
}

func (f *fakeCRM) Retrieve(_ context.Context, objectType, id string, _ []string) (salesforce.Record, error) {
	f.retrieves = append(f.retrieves, objCall{objectType: objectType, id: id})
	if f.retrieveFn != nil {
		return f.retrieveFn(objectType, id)
	}
	return salesforce.Record{}, nil
}

func (f *fakeCRM) ConvertLead(_ context.Context, leadID, _ string) (salesforce.ConvertResult, error) {
	f.converts = append(f.converts, leadID)
	if f.convertFn != nil {
		return f.convertFn(leadID)
	}
	return salesforce.ConvertResult{Success: true}, nil
}

func (f *fakeCRM) queriedFor(fragment string) bool {
	for _, q := range f.queries {
		if strings.Contains(q, fragment) {
			return true
		}
	}
	return false
}

func (f *fakeCRM) createsOf(objectType string) []objCall {
	var out []objCall
	for _, c := range f.creates {
		if c.objectType == objectType {
			out = append(out, c)
		}
	}
	return out
}

// fakeClock advances instantly and counts sleeps.
type fakeClock struct {
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps++
	return nil
}

type fakeJournal struct {
	attempts []ports.AttemptRecord
}

func (j *fakeJournal) RecordAttempt(_ context.Context, rec ports.AttemptRecord) error {
	j.attempts = append(j.attempts, rec)
	return nil
}

type fakeReconciler struct {
	scheduled []string
}

func (r *fakeReconciler) ScheduleLeadCheck(_ context.Context, leadID, _, _ string) error {
	r.scheduled = append(r.scheduled, leadID)
	return nil
}

type fakeEvents struct {
	published []ports.CompletedEvent
}

func (e *fakeEvents) PublishRegistrationCompleted(_ context.Context, ev ports.CompletedEvent) {
	e.published = append(e.published, ev)
}
