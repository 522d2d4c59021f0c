package service

import (
	"context"
	"strings"
	"testing"

	"admission_portal_backend/internal/salesforce"
)

func TestResolverFallsBackToDisplayLabel(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "DeveloperName") {
				return nil, nil
			}
			return []salesforce.Record{{"Id": "012label"}}, nil
		},
	}
	r := NewRecordTypeResolver(crm, nil)

	if got := r.UniversityOpportunityType(context.Background()); got != "012label" {
		t.Fatalf("record type = %q, want 012label", got)
	}
	if len(crm.queries) != 2 {
		t.Fatalf("queries = %d, want internal name then label", len(crm.queries))
	}
}

func TestResolverCachesLookups(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(string) ([]salesforce.Record, error) {
			return []salesforce.Record{{"Id": "012person"}}, nil
		},
	}
	r := NewRecordTypeResolver(crm, nil)

	for i := 0; i < 3; i++ {
		if got := r.PersonAccountType(context.Background()); got != "012person" {
			t.Fatalf("record type = %q, want 012person", got)
		}
	}
	if len(crm.queries) != 1 {
		t.Fatalf("queries = %d, want single cached lookup", len(crm.queries))
	}
}
