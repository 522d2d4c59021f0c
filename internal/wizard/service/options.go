package service

import (
	"context"
	"fmt"
	"strings"

	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/internal/wizard/transport"
	"admission_portal_backend/platform/apperr"

	"golang.org/x/sync/errgroup"
)

// Bootstrap loads the first step's pick lists in one round trip.
func (s *Service) Bootstrap(ctx context.Context) (transport.BootstrapResponse, error) {
	var resp transport.BootstrapResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		campuses, err := s.Campuses(gctx, "")
		resp.Campuses = campuses
		return err
	})
	g.Go(func() error {
		intakes, err := s.Intakes(gctx, "")
		resp.Intakes = intakes
		return err
	})
	if err := g.Wait(); err != nil {
		return transport.BootstrapResponse{}, err
	}
	return resp, nil
}

// Campuses lists campuses, optionally filtered by a name fragment.
func (s *Service) Campuses(ctx context.Context, term string) ([]transport.Option, error) {
	return cached(ctx, s, "wizard:campuses:"+strings.ToLower(term), func() ([]transport.Option, error) {
		soql := "SELECT Id, Name FROM Campus__c"
		if term != "" {
			soql += fmt.Sprintf(" WHERE Name LIKE '%%%s%%'", salesforce.Escape(term))
		}
		soql += " ORDER BY Name LIMIT 200"
		return s.queryOptions(ctx, soql)
	})
}

// Intakes lists intakes, optionally scoped to a campus.
func (s *Service) Intakes(ctx context.Context, campusID string) ([]transport.Option, error) {
	return cached(ctx, s, "wizard:intakes:"+campusID, func() ([]transport.Option, error) {
		soql := "SELECT Id, Name FROM Master_Intake__c"
		if campusID != "" {
			soql += fmt.Sprintf(" WHERE Campus__r.Id = %s", salesforce.Quote(campusID))
		}
		soql += " ORDER BY Name DESC LIMIT 200"
		return s.queryOptions(ctx, soql)
	})
}

// Programs lists the study programs offered at a campus for an intake. The
// junction walk follows the org's catalog model: campus to faculty-campus,
// then programs whose faculty-campus offering is open in the intake.
func (s *Service) Programs(ctx context.Context, campusID, intakeID string) ([]transport.Option, error) {
	if campusID == "" || intakeID == "" {
		return nil, apperr.Validation("campusId and intakeId are required")
	}

	return cached(ctx, s, "wizard:programs:"+campusID+":"+intakeID, func() ([]transport.Option, error) {
		fcSoql := fmt.Sprintf("SELECT Id FROM Faculty_Campus__c WHERE Campus__r.Id = %s LIMIT 500",
			salesforce.Quote(campusID))
		fcRecords, err := s.crm.Query(ctx, fcSoql)
		if err != nil {
			return nil, err
		}
		if len(fcRecords) == 0 {
			return []transport.Option{}, nil
		}

		fcIDs := make([]string, 0, len(fcRecords))
		for _, rec := range fcRecords {
			fcIDs = append(fcIDs, rec.Str("Id"))
		}

		soql := fmt.Sprintf(
			"SELECT Id, Study_Program__r.Id, Study_Program__r.Name "+
				"FROM Study_Program_Faculty_Campus__c "+
				"WHERE Faculty_Campus__c IN (%s) "+
				"AND Id IN (SELECT Study_Program_Faculty_Campus__c FROM Study_Program_Intake__c "+
				"WHERE Master_Intake__c = %s) "+
				"ORDER BY Study_Program__r.Name LIMIT 500",
			salesforce.QuoteList(fcIDs), salesforce.Quote(intakeID))
		records, err := s.crm.Query(ctx, soql)
		if err != nil {
			return nil, err
		}

		options := make([]transport.Option, 0, len(records))
		for _, rec := range records {
			id := rec.Str("Study_Program__r.Id")
			name := rec.Str("Study_Program__r.Name")
			if id != "" && name != "" {
				options = append(options, transport.Option{ID: id, Name: name})
			}
		}
		return options, nil
	})
}

// Pricing resolves the booking price through the active batch for the
// intake.
func (s *Service) Pricing(ctx context.Context, intakeID, studyProgramID, date string) (transport.PricingResponse, error) {
	if intakeID == "" || studyProgramID == "" {
		return transport.PricingResponse{}, apperr.Validation("intakeId and studyProgramId are required")
	}

	batch, err := s.activeBatch(ctx, intakeID, date)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			// No open batch means no price yet, not an error.
			return transport.PricingResponse{}, nil
		}
		return transport.PricingResponse{}, err
	}

	soql := fmt.Sprintf(
		"SELECT Id, Name, Booking_Form_Price__c FROM Batch_Study_Program__c "+
			"WHERE Batch__c = %s AND Study_Program__c = %s LIMIT 1",
		salesforce.Quote(batch.Str("Id")), salesforce.Quote(studyProgramID))
	records, err := s.crm.Query(ctx, soql)
	if err != nil {
		return transport.PricingResponse{}, err
	}

	resp := transport.PricingResponse{BatchName: batch.Str("Name")}
	if len(records) > 0 {
		resp.BatchID = records[0].Str("Id")
		if name := records[0].Str("Name"); name != "" {
			resp.BatchName = name
		}
		if price, ok := records[0].Float("Booking_Form_Price__c"); ok {
			resp.BookingPrice = &price
		}
	}
	return resp, nil
}

// Schools searches the master school registry by name or NPSN code.
func (s *Service) Schools(ctx context.Context, term string) ([]transport.Option, error) {
	if len(term) < 2 {
		return nil, apperr.Validation("search term is too short")
	}

	return cached(ctx, s, "wizard:schools:"+strings.ToLower(term), func() ([]transport.Option, error) {
		esc := salesforce.Escape(term)
		soql := fmt.Sprintf(
			"SELECT Id, Name, NPSN__c FROM MasterSchool__c "+
				"WHERE Name LIKE '%%%s%%' OR NPSN__c LIKE '%%%s%%' ORDER BY Name LIMIT 10",
			esc, esc)
		records, err := s.crm.Query(ctx, soql)
		if err != nil {
			return nil, err
		}

		options := make([]transport.Option, 0, len(records))
		for _, rec := range records {
			options = append(options, transport.Option{
				ID:   rec.Str("Id"),
				Name: rec.Str("Name"),
				NPSN: rec.Str("NPSN__c"),
			})
		}
		return options, nil
	})
}

func (s *Service) queryOptions(ctx context.Context, soql string) ([]transport.Option, error) {
	records, err := s.crm.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	options := make([]transport.Option, 0, len(records))
	for _, rec := range records {
		options = append(options, transport.Option{ID: rec.Str("Id"), Name: rec.Str("Name")})
	}
	return options, nil
}
