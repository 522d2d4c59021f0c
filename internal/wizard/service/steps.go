package service

import (
	"context"
	"fmt"
	"strings"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/internal/wizard/transport"
	"admission_portal_backend/platform/apperr"
)

// SaveSelection records the program choice and advances the wizard.
func (s *Service) SaveSelection(ctx context.Context, opportunityID string, req transport.SelectionRequest) error {
	if !salesforce.IsID(opportunityID) {
		return apperr.Validation("invalid opportunity id")
	}

	fields := salesforce.Record{
		"Campus__c":        req.CampusID,
		"Master_Intake__c": req.IntakeID,
		"Study_Program__c": req.StudyProgramID,
	}
	s.advanceStage(ctx, opportunityID, domain.WebStageProgramChosen, fields)
	return s.crm.Update(ctx, "Opportunity", opportunityID, fields)
}

// SaveEducation records the school step. Auto mode links the master school
// on the account and clears any manual draft; manual mode keeps the typed
// school on the opportunity until staff resolve it.
func (s *Service) SaveEducation(ctx context.Context, accountID, opportunityID string, req transport.EducationRequest) error {
	if !salesforce.IsID(opportunityID) || !salesforce.IsID(accountID) {
		return apperr.Validation("invalid account or opportunity id")
	}

	oppFields := salesforce.Record{
		"Graduation_Year__c": req.GraduationYear,
	}
	s.advanceStage(ctx, opportunityID, domain.WebStageEducation, oppFields)

	if req.MasterSchoolID != "" {
		if err := s.crm.Update(ctx, "Account", accountID, salesforce.Record{
			"Master_School__c": req.MasterSchoolID,
		}); err != nil {
			return err
		}
		oppFields["Draft_Sekolah__c"] = nil
		oppFields["Draft_NPSN__c"] = nil
	} else {
		draft := strings.TrimSpace(req.DraftSchool)
		if draft == "" {
			return apperr.Validation("school name is required")
		}
		oppFields["Draft_Sekolah__c"] = draft
		oppFields["Draft_NPSN__c"] = npsnDigits(req.DraftNPSN)
	}

	return s.crm.Update(ctx, "Opportunity", opportunityID, oppFields)
}

// Finalize moves the opportunity to the registration stage. Finalizing an
// already submitted wizard is a no-op, so retries are safe.
func (s *Service) Finalize(ctx context.Context, opportunityID string) error {
	if !salesforce.IsID(opportunityID) {
		return apperr.Validation("invalid opportunity id")
	}

	fields := salesforce.Record{"StageName": domain.StageRegistration}
	s.advanceStage(ctx, opportunityID, domain.WebStageFinalized, fields)
	return s.crm.Update(ctx, "Opportunity", opportunityID, fields)
}

// advanceStage adds the web stage write to fields unless the opportunity
// already sits at or past target. Steps can be replayed out of order by a
// stale client tab; their data still lands but the stage never regresses.
func (s *Service) advanceStage(ctx context.Context, opportunityID string, target int, fields salesforce.Record) {
	soql := fmt.Sprintf("SELECT Web_Stage__c FROM Opportunity WHERE Id = %s LIMIT 1",
		salesforce.Quote(opportunityID))
	records, err := s.crm.Query(ctx, soql)
	if err == nil && len(records) == 1 {
		if v, ok := records[0].Float("Web_Stage__c"); ok && int(v) >= target {
			return
		}
	}
	fields["Web_Stage__c"] = target
}

// npsnDigits keeps only digits, nil when none remain so the field clears.
func npsnDigits(raw string) interface{} {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return nil
	}
	return b.String()
}
