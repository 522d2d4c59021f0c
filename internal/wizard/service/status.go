package service

import (
	"context"
	"fmt"
	"time"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/internal/wizard/transport"
	"admission_portal_backend/platform/apperr"
)

const statusFields = "Id, AccountId, StageName, Web_Stage__c, " +
	"Campus__c, Campus__r.Name, " +
	"Master_Intake__c, Master_Intake__r.Name, " +
	"Study_Program__c, Study_Program__r.Name, Study_Program__r.Booking_Form_Price__c, " +
	"Graduation_Year__c, Draft_Sekolah__c, Draft_NPSN__c, " +
	"Account.FirstName, Account.LastName, Account.PersonEmail, " +
	"Account.PersonMobilePhone, Account.PersonHomePhone, " +
	"Account.Master_School__c, Account.Master_School__r.Name"

// Status resumes the wizard from the opportunity's saved state.
func (s *Service) Status(ctx context.Context, opportunityID string) (transport.StatusResponse, error) {
	if !salesforce.IsID(opportunityID) {
		return transport.StatusResponse{}, apperr.Validation("invalid opportunity id")
	}

	soql := fmt.Sprintf("SELECT %s FROM Opportunity WHERE Id = %s LIMIT 1",
		statusFields, salesforce.Quote(opportunityID))
	records, err := s.crm.Query(ctx, soql)
	if err != nil {
		return transport.StatusResponse{}, err
	}
	if len(records) == 0 {
		return transport.StatusResponse{}, apperr.NotFound("opportunity not found")
	}
	opp := records[0]

	webStage := domain.WebStageRegistered
	if v, ok := opp.Float("Web_Stage__c"); ok && int(v) > 0 {
		webStage = int(v)
	}

	mobile := opp.Str("Account.PersonMobilePhone")
	home := opp.Str("Account.PersonHomePhone")
	phone := mobile
	if phone == "" {
		phone = home
	}

	resp := transport.StatusResponse{
		OpportunityID: opp.Str("Id"),
		AccountID:     opp.Str("AccountId"),
		WebStage:      webStage,
		StageName:     opp.Str("StageName"),
		IsSubmitted:   webStage == domain.WebStageFinalized,
		Person: transport.Person{
			FirstName:   opp.Str("Account.FirstName"),
			LastName:    opp.Str("Account.LastName"),
			Email:       opp.Str("Account.PersonEmail"),
			Phone:       phone,
			MobilePhone: mobile,
			HomePhone:   home,
		},
		Selection: transport.Selection{
			CampusName:       opp.Str("Campus__r.Name"),
			IntakeName:       opp.Str("Master_Intake__r.Name"),
			StudyProgramName: opp.Str("Study_Program__r.Name"),
		},
		Education: educationBlock(opp),
	}

	if price, ok := opp.Float("Study_Program__r.Booking_Form_Price__c"); ok {
		resp.Selection.BookingPrice = &price
	}

	// The active batch label is display-only; a lookup failure must not
	// break resume.
	if intakeID := opp.Str("Master_Intake__c"); intakeID != "" {
		if batch, err := s.activeBatch(ctx, intakeID, ""); err == nil {
			resp.Selection.BatchName = batch.Str("Name")
		}
	}

	return resp, nil
}

// educationBlock prefers the linked master school and falls back to the
// manually typed draft.
func educationBlock(opp salesforce.Record) transport.Education {
	edu := transport.Education{GraduationYear: opp.Str("Graduation_Year__c")}

	switch {
	case opp.Str("Account.Master_School__c") != "":
		edu.Mode = "auto"
		edu.SchoolName = opp.Str("Account.Master_School__r.Name")
	case opp.Str("Draft_Sekolah__c") != "":
		edu.Mode = "manual"
		edu.SchoolName = opp.Str("Draft_Sekolah__c")
		edu.DraftNPSN = opp.Str("Draft_NPSN__c")
	}
	return edu
}

// activeBatch returns the batch whose window covers the given date, today
// when empty.
func (s *Service) activeBatch(ctx context.Context, intakeID, date string) (salesforce.Record, error) {
	if date == "" {
		date = s.clock.Now().Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, apperr.Validation("date must be YYYY-MM-DD")
	}
	soql := fmt.Sprintf(
		"SELECT Id, Name FROM Master_Batches__c WHERE Intake__c = %s "+
			"AND Batch_Start_Date__c <= %s AND Batch_End_Date__c >= %s "+
			"ORDER BY Batch_Start_Date__c DESC LIMIT 1",
		salesforce.Quote(intakeID), date, date)
	records, err := s.crm.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, apperr.NotFound("no active batch for intake")
	}
	return records[0], nil
}
