package service

import (
	"context"
	"fmt"
	"strings"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/logger"
)

const opportunityNameTimestamp = "20060102150405"

// Provisioner creates person accounts and admission opportunities directly,
// for registrants with no lead history and for conversions that timed out.
type Provisioner struct {
	crm         ports.CRM
	recordTypes *RecordTypeResolver
	clock       ports.Clock
	policy      domain.Policy
	log         *logger.Logger
}

func NewProvisioner(crm ports.CRM, rt *RecordTypeResolver, clock ports.Clock, policy domain.Policy, log *logger.Logger) *Provisioner {
	return &Provisioner{crm: crm, recordTypes: rt, clock: clock, policy: policy, log: log}
}

// CreateAccountAndOpportunity provisions both objects. Either both exist
// afterwards or an error reports exactly which create was rejected; a
// rejected opportunity create surfaces the account that was already made so
// nothing is silently half done.
func (p *Provisioner) CreateAccountAndOpportunity(ctx context.Context, reg domain.Registrant) (string, string, error) {
	fields := salesforce.Record{
		"FirstName":   reg.FirstName,
		"LastName":    reg.LastName,
		"PersonEmail": reg.Email,
	}
	for _, alias := range p.policy.PhoneFieldAliases {
		fields[alias] = reg.Phone
	}
	if reg.PasswordHash != "" {
		fields["Password__c"] = reg.PasswordHash
	}
	if reg.SchoolID != "" {
		fields["Master_School__c"] = reg.SchoolID
	}
	if rt := p.recordTypes.PersonAccountType(ctx); rt != "" {
		fields["RecordTypeId"] = rt
	}

	res, err := p.crm.Create(ctx, "Account", fields, salesforce.AllowDuplicates())
	if err != nil {
		return "", "", err
	}
	if !res.Success {
		return "", "", apperr.Provisioning("account create rejected: " + salesforce.Reasons(res.Errors))
	}
	accountID := res.ID

	oppID, err := p.CreateOpportunity(ctx, accountID, reg.FirstName, reg.LastName)
	if err != nil {
		return "", "", apperr.Provisioning(
			fmt.Sprintf("opportunity create failed for account %s: %v", accountID, err))
	}
	return accountID, oppID, nil
}

// CreateOpportunity opens a fresh opportunity at the booking stage.
func (p *Provisioner) CreateOpportunity(ctx context.Context, accountID, firstName, lastName string) (string, error) {
	return p.CreateOpportunityAtStage(ctx, accountID, firstName, lastName, domain.WebStageRegistered)
}

// CreateOpportunityAtStage opens a fresh opportunity with an explicit wizard
// checkpoint, so a returning login can land on step two directly.
func (p *Provisioner) CreateOpportunityAtStage(ctx context.Context, accountID, firstName, lastName string, webStage int) (string, error) {
	now := p.clock.Now()
	fields := salesforce.Record{
		"Name":         opportunityName(firstName, lastName, now.Format(opportunityNameTimestamp)),
		"AccountId":    accountID,
		"StageName":    domain.StageBookingForm,
		"CloseDate":    now.Add(domain.CloseDateOffset).Format("2006-01-02"),
		"Web_Stage__c": webStage,
	}
	if rt := p.recordTypes.UniversityOpportunityType(ctx); rt != "" {
		fields["RecordTypeId"] = rt
	}

	res, err := p.crm.Create(ctx, "Opportunity", fields)
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", apperr.Provisioning("opportunity create rejected: " + salesforce.Reasons(res.Errors))
	}
	return res.ID, nil
}

// EnsureOpportunity returns an opportunity for an adopted account: the most
// recent open one when the reuse policy allows it, otherwise a fresh one.
func (p *Provisioner) EnsureOpportunity(ctx context.Context, accountID, firstName, lastName string) (string, error) {
	if p.policy.OpportunityReuse == domain.ReuseLatest {
		soql := fmt.Sprintf(
			"SELECT Id FROM Opportunity WHERE AccountId = %s AND IsClosed = false "+
				"ORDER BY CreatedDate DESC LIMIT 1",
			salesforce.Quote(accountID))
		records, err := p.crm.Query(ctx, soql)
		if err != nil {
			return "", err
		}
		if len(records) > 0 {
			return records[0].Str("Id"), nil
		}
	}
	return p.CreateOpportunity(ctx, accountID, firstName, lastName)
}

func opportunityName(firstName, lastName, stamp string) string {
	full := strings.TrimSpace(strings.TrimSpace(firstName) + " " + strings.TrimSpace(lastName))
	return full + "/REG/" + stamp
}
