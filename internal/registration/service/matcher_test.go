package service

import (
	"context"
	"strings"
	"testing"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/salesforce"
)

func testRegistrant() domain.Registrant {
	return domain.Registrant{
		FirstName: "Ani",
		LastName:  "Wijaya",
		Email:     "ani@example.com",
		Phone:     "+628123456789",
	}
}

func TestMatchEmailShortCircuitsPhone(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			return []salesforce.Record{{"Id": "00Qemail", "Email": "ani@example.com"}}, nil
		},
	}
	m := NewLeadMatcher(crm, domain.DefaultPolicy())

	cand, err := m.Match(context.Background(), testRegistrant())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if cand == nil || cand.Tier != domain.TierEmail || cand.Lead.ID != "00Qemail" {
		t.Fatalf("expected email-tier match, got %+v", cand)
	}
	if len(crm.queries) != 1 {
		t.Errorf("email hit must not fall through to phone, ran %d queries", len(crm.queries))
	}
}

func TestMatchEmailFindsConvertedLeads(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if !strings.Contains(soql, "Email =") {
				return nil, nil
			}
			return []salesforce.Record{{
				"Id":                 "00Qconv",
				"IsConverted":        true,
				"ConvertedAccountId": "001acc",
			}}, nil
		},
	}
	m := NewLeadMatcher(crm, domain.DefaultPolicy())

	cand, err := m.Match(context.Background(), testRegistrant())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if cand == nil || !cand.Lead.IsConverted || cand.Lead.ConvertedAccountID != "001acc" {
		t.Fatalf("converted leads must match on email, got %+v", cand)
	}
	if strings.Contains(crm.queries[0], "IsConverted") {
		t.Error("email tier must not filter on conversion state")
	}
}

func TestMatchPhoneTierQueriesAllVariants(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "Email =") {
				return nil, nil
			}
			return []salesforce.Record{{"Id": "00Qphone"}}, nil
		},
	}
	m := NewLeadMatcher(crm, domain.DefaultPolicy())

	cand, err := m.Match(context.Background(), testRegistrant())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if cand == nil || cand.Tier != domain.TierPhone {
		t.Fatalf("expected phone-tier match, got %+v", cand)
	}

	phoneQuery := crm.queries[1]
	for _, variant := range []string{"'+628123456789'", "'628123456789'", "'08123456789'", "'8123456789'"} {
		if !strings.Contains(phoneQuery, variant) {
			t.Errorf("phone query missing variant %s: %s", variant, phoneQuery)
		}
	}
	if !strings.Contains(phoneQuery, "IsConverted = false") {
		t.Error("phone tier must only consider unconverted leads")
	}
}

func TestMatchPhoneTierNameCorroboration(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "Email =") {
				return nil, nil
			}
			return []salesforce.Record{
				{"Id": "00Qstranger", "FirstName": "Budi", "LastName": "Santoso"},
				{"Id": "00Qani", "FirstName": "ANI", "LastName": "wijaya"},
			}, nil
		},
	}
	policy := domain.DefaultPolicy()
	policy.RequireNameCorroboration = true
	m := NewLeadMatcher(crm, policy)

	cand, err := m.Match(context.Background(), testRegistrant())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if cand == nil || cand.Lead.ID != "00Qani" {
		t.Fatalf("expected the name-corroborated lead, got %+v", cand)
	}
}

func TestMatchEmailOnlyPolicySkipsPhone(t *testing.T) {
	crm := &fakeCRM{}
	policy := domain.DefaultPolicy()
	policy.MatchTier = domain.MatchEmailOnly
	m := NewLeadMatcher(crm, policy)

	cand, err := m.Match(context.Background(), testRegistrant())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if cand != nil {
		t.Fatalf("expected no match, got %+v", cand)
	}
	if len(crm.queries) != 1 {
		t.Errorf("email-only policy must run exactly one query, ran %d", len(crm.queries))
	}
}
