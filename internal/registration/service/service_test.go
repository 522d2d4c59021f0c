package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/transport"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/apperr"
)

type pipeline struct {
	svc        *Service
	crm        *fakeCRM
	journal    *fakeJournal
	reconciler *fakeReconciler
	events     *fakeEvents
	clock      *fakeClock
}

func newPipeline(crm *fakeCRM, policy domain.Policy) *pipeline {
	clock := &fakeClock{now: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)}
	journal := &fakeJournal{}
	reconciler := &fakeReconciler{}
	events := &fakeEvents{}

	matcher := NewLeadMatcher(crm, policy)
	converter := NewFlagConverter(crm, clock, policy, testLog)
	prov := NewProvisioner(crm, NewRecordTypeResolver(crm, nil), clock, policy, testLog)
	svc := New(matcher, converter, prov, crm, policy, journal, reconciler, events, testLog)

	return &pipeline{svc: svc, crm: crm, journal: journal, reconciler: reconciler, events: events, clock: clock}
}

func registerRequest() transport.RegisterRequest {
	return transport.RegisterRequest{
		FirstName: "Ani",
		LastName:  "Wijaya",
		Email:     "Ani@Example.com",
		Phone:     "0812-3456-789",
		Password:  "s3cret-pass",
	}
}

func TestRegisterNoMatchProvisionsFresh(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error) {
			if objectType == "Account" {
				return salesforce.SaveResult{ID: "001new", Success: true}, nil
			}
			return salesforce.SaveResult{ID: "006new", Success: true}, nil
		},
	}
	p := newPipeline(crm, domain.DefaultPolicy())

	res, err := p.svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.AccountID != "001new" || res.OpportunityID != "006new" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Email != "ani@example.com" {
		t.Errorf("email must be lowercased, got %s", res.Email)
	}
	if res.Phone != "+628123456789" {
		t.Errorf("phone must be canonical, got %s", res.Phone)
	}
	if res.Reconciling {
		t.Error("direct provisioning does not reconcile")
	}

	acc := crm.createsOf("Account")[0].fields
	if acc["Password__c"] != HashPassword("s3cret-pass") {
		t.Error("password hash not stored on account")
	}

	if len(p.journal.attempts) != 1 || p.journal.attempts[0].Path != "provisioned" {
		t.Errorf("journal: %+v", p.journal.attempts)
	}
	if len(p.events.published) != 1 || p.events.published[0].AccountID != "001new" {
		t.Errorf("events: %+v", p.events.published)
	}
}

func TestRegisterConvertsUnconvertedEmailMatch(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Lead") && strings.Contains(soql, "Email =") {
				return []salesforce.Record{{"Id": "00Qlead", "Email": "ani@example.com"}}, nil
			}
			return nil, nil
		},
		retrieveFn: func(objectType, id string) (salesforce.Record, error) {
			return salesforce.Record{
				"IsConverted":            true,
				"ConvertedAccountId":     "001conv",
				"ConvertedOpportunityId": "006conv",
			}, nil
		},
	}
	p := newPipeline(crm, domain.DefaultPolicy())

	res, err := p.svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.AccountID != "001conv" || res.OpportunityID != "006conv" {
		t.Fatalf("expected the converted triple, got %+v", res)
	}
	if len(crm.creates) != 0 {
		t.Errorf("conversion path must not create objects: %+v", crm.creates)
	}
	if p.journal.attempts[0].Path != "converted" {
		t.Errorf("journal path = %s", p.journal.attempts[0].Path)
	}

	// The automation does not carry credentials over; the account gets them
	// after conversion.
	var refreshed bool
	for _, u := range crm.updates {
		if u.objectType == "Account" && u.id == "001conv" {
			refreshed = true
			if u.fields["Password__c"] != HashPassword("s3cret-pass") {
				t.Error("refresh must carry the password hash")
			}
		}
	}
	if !refreshed {
		t.Error("converted account was never refreshed with credentials")
	}
}

func TestRegisterAdoptsConvertedEmailMatch(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Lead") {
				return []salesforce.Record{{
					"Id":                 "00Qdone",
					"IsConverted":        true,
					"ConvertedAccountId": "001adopt",
				}}, nil
			}
			return nil, nil
		},
		createFn: func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error) {
			return salesforce.SaveResult{ID: "006fresh", Success: true}, nil
		},
	}
	p := newPipeline(crm, domain.DefaultPolicy())

	res, err := p.svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.AccountID != "001adopt" || res.OpportunityID != "006fresh" {
		t.Fatalf("unexpected result: %+v", res)
	}

	for _, u := range crm.updates {
		if u.objectType == "Lead" {
			t.Fatalf("no update may be issued against a converted lead: %+v", u)
		}
	}
	if len(crm.createsOf("Account")) != 0 {
		t.Error("adoption must not create a second account")
	}
	if p.journal.attempts[0].Path != "adopted" {
		t.Errorf("journal path = %s", p.journal.attempts[0].Path)
	}
}

func TestRegisterConversionWithoutAccountProvisionsFresh(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Lead") && strings.Contains(soql, "Email =") {
				return []salesforce.Record{{"Id": "00Qbroken", "Email": "ani@example.com"}}, nil
			}
			return nil, nil
		},
		retrieveFn: func(objectType, id string) (salesforce.Record, error) {
			// The automation marks the lead converted but never links an
			// account.
			return salesforce.Record{"IsConverted": true}, nil
		},
		createFn: func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error) {
			if objectType == "Account" {
				return salesforce.SaveResult{ID: "001safe", Success: true}, nil
			}
			return salesforce.SaveResult{ID: "006safe", Success: true}, nil
		},
	}
	p := newPipeline(crm, domain.DefaultPolicy())

	res, err := p.svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if res.AccountID == "" || res.OpportunityID == "" {
		t.Fatalf("result must never carry empty ids: %+v", res)
	}
	if res.AccountID != "001safe" || res.OpportunityID != "006safe" {
		t.Fatalf("expected a freshly provisioned pair, got %+v", res)
	}

	// No opportunity may be created before the account it belongs to.
	creates := crm.createsOf("Opportunity")
	if len(creates) != 1 {
		t.Fatalf("opportunity creates: %d", len(creates))
	}
	if creates[0].fields["AccountId"] != "001safe" {
		t.Errorf("opportunity must reference the provisioned account: %v", creates[0].fields)
	}
	if p.journal.attempts[0].Path != "provisioned" {
		t.Errorf("journal path = %s", p.journal.attempts[0].Path)
	}
}

func TestRegisterTimeoutFallsBackAndReconciles(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Lead") && strings.Contains(soql, "Email =") {
				return []salesforce.Record{{"Id": "00Qslow", "Email": "ani@example.com"}}, nil
			}
			return nil, nil
		},
		retrieveFn: func(objectType, id string) (salesforce.Record, error) {
			return salesforce.Record{"IsConverted": false}, nil
		},
		createFn: func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error) {
			if objectType == "Account" {
				return salesforce.SaveResult{ID: "001fb", Success: true}, nil
			}
			return salesforce.SaveResult{ID: "006fb", Success: true}, nil
		},
	}
	p := newPipeline(crm, domain.DefaultPolicy())

	res, err := p.svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !res.Reconciling {
		t.Error("timed-out conversion must report reconciling")
	}
	if res.AccountID != "001fb" || res.OpportunityID != "006fb" {
		t.Fatalf("unexpected fallback result: %+v", res)
	}
	if len(p.reconciler.scheduled) != 1 || p.reconciler.scheduled[0] != "00Qslow" {
		t.Errorf("reconcile not scheduled for the lead: %v", p.reconciler.scheduled)
	}
	att := p.journal.attempts[0]
	if att.Path != "timeout-provisioned" || !att.TimedOut {
		t.Errorf("journal: %+v", att)
	}
}

func TestRegisterPhoneMatchWithForeignEmailIsIgnored(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "Email =") && strings.Contains(soql, "FROM Lead") {
				return nil, nil
			}
			if strings.Contains(soql, "MobilePhone IN") {
				return []salesforce.Record{{
					"Id":    "00Qother",
					"Email": "someone.else@example.com",
					"Phone": "+628123456789",
				}}, nil
			}
			return nil, nil
		},
	}
	p := newPipeline(crm, domain.DefaultPolicy())

	res, err := p.svc.Register(context.Background(), registerRequest())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	for _, u := range crm.updates {
		if u.objectType == "Lead" && u.id == "00Qother" {
			t.Fatal("a lead with someone else's email must never be converted")
		}
	}
	if res.AccountID == "" {
		t.Error("registration must still provision an account")
	}
	if p.journal.attempts[0].Path != "provisioned" {
		t.Errorf("journal path = %s", p.journal.attempts[0].Path)
	}
}

func TestRegisterEnforceUniqueEmail(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Account") && strings.Contains(soql, "PersonEmail") {
				return []salesforce.Record{{"Id": "001taken"}}, nil
			}
			return nil, nil
		},
	}
	policy := domain.DefaultPolicy()
	policy.EnforceUniqueEmail = true
	p := newPipeline(crm, policy)

	_, err := p.svc.Register(context.Background(), registerRequest())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(crm.creates) != 0 {
		t.Error("nothing may be created for a duplicate email")
	}
}

func TestRegisterRejectsDigitlessPhone(t *testing.T) {
	p := newPipeline(&fakeCRM{}, domain.DefaultPolicy())
	req := registerRequest()
	req.Phone = "call me"

	_, err := p.svc.Register(context.Background(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(p.crm.queries) != 0 {
		t.Error("no CRM call may be made for an invalid phone")
	}
}

func TestRegisterRejectsImplausiblePhone(t *testing.T) {
	p := newPipeline(&fakeCRM{}, domain.DefaultPolicy())
	req := registerRequest()
	// Canonicalizes cleanly but is far too short for an Indonesian number.
	req.Phone = "0812 123"

	_, err := p.svc.Register(context.Background(), req)
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(p.crm.queries) != 0 {
		t.Error("no CRM call may be made for an invalid phone")
	}
}
