package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

var testLog = logger.New("production")

const (
	testOppID = "006gL000002NZITQA4"
	testAccID = "001gL000005XYZTQA4"
)

type objCall struct {
	objectType string
	id         string
	fields     salesforce.Record
}

type fakeCRM struct {
	queryFn  func(soql string) ([]salesforce.Record, error)
	createFn func(objectType string, fields salesforce.Record) (salesforce.SaveResult, error)

	queries []string
	creates []objCall
	updates []objCall
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
	return nil
}

func (f *fakeCRM) Retrieve(_ context.Context, objectType, id string, _ []string) (salesforce.Record, error) {
	return salesforce.Record{"Name": "Ani Wijaya/REG/20260315093000"}, nil
}

func (f *fakeCRM) ConvertLead(_ context.Context, _, _ string) (salesforce.ConvertResult, error) {
	return salesforce.ConvertResult{}, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time                                 { return c.now }
func (c fixedClock) Sleep(_ context.Context, _ time.Duration) error { return nil }

func newService(t *testing.T, crm *fakeCRM, withRedis bool) *Service {
	t.Helper()

	var rdb *redis.Client
	if withRedis {
		mr := miniredis.RunT(t)
		rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	}
	return New(crm, rdb, nil, fixedClock{now: time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)}, testLog)
}

func TestStatus(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Opportunity") {
				return []salesforce.Record{{
					"Id":           testOppID,
					"AccountId":    testAccID,
					"StageName":    "Booking Form",
					"Web_Stage__c": float64(3),
					"Campus__r": map[string]interface{}{
						"Name": "Jakarta",
					},
					"Master_Intake__c": "a0Xintake",
					"Master_Intake__r": map[string]interface{}{
						"Name": "2026/2027",
					},
					"Study_Program__r": map[string]interface{}{
						"Name":                  "Informatics",
						"Booking_Form_Price__c": float64(500000),
					},
					"Draft_Sekolah__c": "SMA Negeri 1",
					"Draft_NPSN__c":    "20100001",
					"Account": map[string]interface{}{
						"FirstName":         "Ani",
						"LastName":          "Wijaya",
						"PersonEmail":       "ani@example.com",
						"PersonMobilePhone": "+628123456789",
					},
				}}, nil
			}
			if strings.Contains(soql, "FROM Master_Batches__c") {
				return []salesforce.Record{{"Id": "a0Bbatch", "Name": "Batch 2"}}, nil
			}
			return nil, nil
		},
	}
	svc := newService(t, crm, false)

	res, err := svc.Status(context.Background(), testOppID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if res.WebStage != 3 || res.IsSubmitted {
		t.Errorf("stage: %+v", res)
	}
	if res.Person.FirstName != "Ani" || res.Person.Phone != "+628123456789" {
		t.Errorf("person: %+v", res.Person)
	}
	if res.Selection.CampusName != "Jakarta" || res.Selection.BatchName != "Batch 2" {
		t.Errorf("selection: %+v", res.Selection)
	}
	if res.Selection.BookingPrice == nil || *res.Selection.BookingPrice != 500000 {
		t.Errorf("price: %+v", res.Selection.BookingPrice)
	}
	if res.Education.Mode != "manual" || res.Education.SchoolName != "SMA Negeri 1" || res.Education.DraftNPSN != "20100001" {
		t.Errorf("education: %+v", res.Education)
	}
}

func TestStatusUnknownOpportunity(t *testing.T) {
	svc := newService(t, &fakeCRM{}, false)

	_, err := svc.Status(context.Background(), testOppID)
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestStatusRejectsMalformedID(t *testing.T) {
	crm := &fakeCRM{}
	svc := newService(t, crm, false)

	_, err := svc.Status(context.Background(), "junk' OR Id != NULL")
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(crm.queries) != 0 {
		t.Error("malformed ids must never reach the CRM")
	}
}

func TestCampusesAreCached(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			return []salesforce.Record{{"Id": "a01c", "Name": "Jakarta"}}, nil
		},
	}
	svc := newService(t, crm, true)

	for i := 0; i < 3; i++ {
		options, err := svc.Campuses(context.Background(), "jak")
		if err != nil {
			t.Fatalf("Campuses: %v", err)
		}
		if len(options) != 1 || options[0].Name != "Jakarta" {
			t.Fatalf("options: %+v", options)
		}
	}
	if len(crm.queries) != 1 {
		t.Errorf("expected one CRM query behind the cache, got %d", len(crm.queries))
	}
}

func TestBootstrapFetchesBothLists(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Campus__c") {
				return []salesforce.Record{{"Id": "a01c", "Name": "Jakarta"}}, nil
			}
			if strings.Contains(soql, "FROM Master_Intake__c") {
				return []salesforce.Record{{"Id": "a0Xi", "Name": "2026/2027"}}, nil
			}
			return nil, nil
		},
	}
	svc := newService(t, crm, false)

	res, err := svc.Bootstrap(context.Background())
	if err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if len(res.Campuses) != 1 || len(res.Intakes) != 1 {
		t.Errorf("bootstrap: %+v", res)
	}
}

func TestProgramsWalksCatalogJunctions(t *testing.T) {
	crm := &fakeCRM{
		queryFn: func(soql string) ([]salesforce.Record, error) {
			if strings.Contains(soql, "FROM Faculty_Campus__c") {
				return []salesforce.Record{{"Id": "a02fc1"}, {"Id": "a02fc2"}}, nil
			}
			if strings.Contains(soql, "FROM Study_Program_Faculty_Campus__c") {
				if !strings.Contains(soql, "'a02fc1'") || !strings.Contains(soql, "'a02fc2'") {
					t.Errorf("junction query missing faculty campuses: %s", soql)
				}
				return []salesforce.Record{{
					"Study_Program__r": map[string]interface{}{"Id": "a03sp", "Name": "Informatics"},
				}}, nil
			}
			return nil, nil
		},
	}
	svc := newService(t, crm, false)

	options, err := svc.Programs(context.Background(), "a01campus", "a0Xintake")
	if err != nil {
		t.Fatalf("Programs: %v", err)
	}
	if len(options) != 1 || options[0].ID != "a03sp" {
		t.Errorf("options: %+v", options)
	}
}

func TestPricingNoOpenBatch(t *testing.T) {
	svc := newService(t, &fakeCRM{}, false)

	res, err := svc.Pricing(context.Background(), "a0Xintake", "a03sp", "")
	if err != nil {
		t.Fatalf("Pricing: %v", err)
	}
	if res.BookingPrice != nil || res.BatchID != "" {
		t.Errorf("expected empty pricing, got %+v", res)
	}
}

func TestSchoolsRequiresTerm(t *testing.T) {
	svc := newService(t, &fakeCRM{}, false)

	if _, err := svc.Schools(context.Background(), "a"); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
