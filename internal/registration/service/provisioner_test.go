package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/salesforce"
)

func newProvisioner(crm *fakeCRM, policy domain.Policy, clock *fakeClock) *Provisioner {
	return NewProvisioner(crm, NewRecordTypeResolver(crm, nil), clock, policy, testLog)
}

func TestCreateAccountAndOpportunity(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "RecordType") {
				return []salesforce.Record{{"Id": "012rt"}}, nil
			}
			return nil, nil
		},
		createFn: func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error) {
			switch objectType {
			case "Account":
				return salesforce.SaveResult{ID: "001new", Success: true}, nil
			default:
				return salesforce.SaveResult{ID: "006new", Success: true}, nil
			}
		},
	}
	clock := &fakeClock{now: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)}
	reg := testRegistrant()
	reg.PasswordHash = "abc123"
	reg.SchoolID = "a0Xschool"

	accountID, oppID, err := newProvisioner(crm, domain.DefaultPolicy(), clock).
		CreateAccountAndOpportunity(context.Background(), reg)
	if err != nil {
		t.Fatalf("CreateAccountAndOpportunity: %v", err)
	}
	if accountID != "001new" || oppID != "006new" {
		t.Fatalf("got %s / %s", accountID, oppID)
	}

	acc := crm.createsOf("Account")[0].fields
	if acc["PersonEmail"] != "ani@example.com" {
		t.Errorf("PersonEmail = %v", acc["PersonEmail"])
	}
	for _, alias := range []string{"Phone", "PersonMobilePhone", "PersonHomePhone"} {
		if acc[alias] != "+628123456789" {
			t.Errorf("alias %s = %v, want canonical phone", alias, acc[alias])
		}
	}
	if acc["Password__c"] != "abc123" || acc["Master_School__c"] != "a0Xschool" {
		t.Errorf("credential fields not carried: %v", acc)
	}
	if acc["RecordTypeId"] != "012rt" {
		t.Errorf("person record type not applied: %v", acc["RecordTypeId"])
	}

	opp := crm.createsOf("Opportunity")[0].fields
	if opp["Name"] != "Ani Wijaya/REG/20260315093000" {
		t.Errorf("opportunity name = %v", opp["Name"])
	}
	if opp["StageName"] != domain.StageBookingForm {
		t.Errorf("stage = %v", opp["StageName"])
	}
	if opp["CloseDate"] != "2026-04-14" {
		t.Errorf("close date should be 30 days out, got %v", opp["CloseDate"])
	}
	if opp["Web_Stage__c"] != domain.WebStageRegistered {
		t.Errorf("web stage = %v", opp["Web_Stage__c"])
	}
	if opp["AccountId"] != "001new" {
		t.Errorf("opportunity not linked to account: %v", opp["AccountId"])
	}
}

func TestCreateAccountRejectionNeverCreatesOpportunity(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error) {
			return salesforce.SaveResult{Success: false, Errors: []salesforce.SaveError{{
				StatusCode: "REQUIRED_FIELD_MISSING",
				Message:    "LastName",
			}}}, nil
		},
	}

	_, _, err := newProvisioner(crm, domain.DefaultPolicy(), &fakeClock{now: time.Now()}).
		CreateAccountAndOpportunity(context.Background(), testRegistrant())
	if err == nil {
		t.Fatal("expected provisioning error")
	}
	if !strings.Contains(err.Error(), "REQUIRED_FIELD_MISSING") {
		t.Errorf("error should carry the CRM reason: %v", err)
	}
	if len(crm.createsOf("Opportunity")) != 0 {
		t.Error("no opportunity may be created after a rejected account")
	}
}

func TestCreateOpportunityRejectionNamesTheAccount(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error) {
			if objectType == "Account" {
				return salesforce.SaveResult{ID: "001half", Success: true}, nil
			}
			return salesforce.SaveResult{Success: false, Errors: []salesforce.SaveError{{
				StatusCode: "INVALID_CROSS_REFERENCE_KEY",
			}}}, nil
		},
	}

	_, _, err := newProvisioner(crm, domain.DefaultPolicy(), &fakeClock{now: time.Now()}).
		CreateAccountAndOpportunity(context.Background(), testRegistrant())
	if err == nil {
		t.Fatal("expected provisioning error")
	}
	if !strings.Contains(err.Error(), "001half") {
		t.Errorf("error must name the orphaned account: %v", err)
	}
}

func TestEnsureOpportunityReuseLatest(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Opportunity") {
				if !strings.Contains(soql, "IsClosed = false") {
					t.Errorf("reuse must only consider open opportunities: %s", soql)
				}
				return []salesforce.Record{{"Id": "006open"}}, nil
			}
			return nil, nil
		},
	}
	policy := domain.DefaultPolicy()
	policy.OpportunityReuse = domain.ReuseLatest

	oppID, err := newProvisioner(crm, policy, &fakeClock{now: time.Now()}).
		EnsureOpportunity(context.Background(), "001acc", "Ani", "Wijaya")
	if err != nil {
		t.Fatalf("EnsureOpportunity: %v", err)
	}
	if oppID != "006open" {
		t.Errorf("expected the open opportunity, got %s", oppID)
	}
	if len(crm.creates) != 0 {
		t.Error("reuse-latest with an open opportunity must not create one")
	}
}

func TestEnsureOpportunityAlwaysFresh(t *testing.T) {
	crm := &fakeCRM{
		createFn: func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error) {
			return salesforce.SaveResult{ID: "006fresh", Success: true}, nil
		},
	}

	oppID, err := newProvisioner(crm, domain.DefaultPolicy(), &fakeClock{now: time.Now()}).
		EnsureOpportunity(context.Background(), "001acc", "Ani", "Wijaya")
	if err != nil {
		t.Fatalf("EnsureOpportunity: %v", err)
	}
	if oppID != "006fresh" {
		t.Errorf("always-fresh must create, got %s", oppID)
	}
	if crm.queriedFor("FROM Opportunity") {
		t.Error("always-fresh must not look for existing opportunities")
	}
}
