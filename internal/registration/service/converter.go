package service

import (
	"context"
	"errors"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/logger"
)

// Converter turns an unconverted lead into an account/contact/opportunity
// triple. Callers must not pass an already converted lead.
type Converter interface {
	Convert(ctx context.Context, lead domain.Lead, reg domain.Registrant) (domain.ConvertOutcome, error)
}

var convertedLeadFields = []string{
	"IsConverted", "ConvertedAccountId", "ConvertedContactId", "ConvertedOpportunityId",
}

// FlagConverter drives the org's Apex automation: it writes the registrant's
// identity onto the lead, raises Is_Convert__c, and polls until the
// automation reports the lead converted or the poll budget runs out. A
// timeout is an outcome, not an error; the caller provisions directly and
// reconciles later.
type FlagConverter struct {
	crm    ports.CRM
	clock  ports.Clock
	policy domain.Policy
	log    *logger.Logger
}

func NewFlagConverter(crm ports.CRM, clock ports.Clock, policy domain.Policy, log *logger.Logger) *FlagConverter {
	return &FlagConverter{crm: crm, clock: clock, policy: policy, log: log}
}

func (c *FlagConverter) Convert(ctx context.Context, lead domain.Lead, reg domain.Registrant) (domain.ConvertOutcome, error) {
	if lead.IsConverted {
		return domain.ConvertOutcome{}, apperr.Internal("refusing to flag an already converted lead")
	}

	// Company must be cleared so the automation converts into a person
	// account rather than a business one.
	fields := salesforce.Record{
		"FirstName":     reg.FirstName,
		"LastName":      reg.LastName,
		"Email":         reg.Email,
		"Phone":         reg.Phone,
		"Company":       nil,
		"Is_Convert__c": true,
	}
	if err := c.crm.Update(ctx, "Lead", lead.ID, fields, salesforce.AllowDuplicates()); err != nil {
		// A concurrent registration may have converted the lead between the
		// match and this write; that is a success, not a failure.
		if outcome, ok := adoptIfConverted(ctx, c.crm, lead.ID); ok {
			c.log.ConversionEvent("converted_concurrently", lead.ID, 0)
			return outcome, nil
		}
		return domain.ConvertOutcome{}, leadWriteError(err)
	}
	c.log.ConversionEvent("flag_raised", lead.ID, 0)

	for attempt := 1; attempt <= c.policy.PollMaxAttempts; attempt++ {
		if err := c.clock.Sleep(ctx, c.policy.PollInterval); err != nil {
			return domain.ConvertOutcome{}, apperr.Unavailable("conversion poll interrupted", err)
		}

		rec, err := c.crm.Retrieve(ctx, "Lead", lead.ID, convertedLeadFields)
		if err != nil {
			// A flaky read mid-poll does not abort the loop; the lead may
			// still convert on a later attempt.
			c.log.CRMError("pollConversion", "Lead", err)
			continue
		}
		if rec.Bool("IsConverted") {
			c.log.ConversionEvent("converted", lead.ID, attempt)
			return domain.ConvertOutcome{Triple: domain.ConvertedTriple{
				AccountID:     rec.Str("ConvertedAccountId"),
				ContactID:     rec.Str("ConvertedContactId"),
				OpportunityID: rec.Str("ConvertedOpportunityId"),
			}}, nil
		}
	}

	c.log.ConversionEvent("poll_timeout", lead.ID, c.policy.PollMaxAttempts)
	return domain.ConvertOutcome{TimedOut: true}, nil
}

// leadWriteError types a rejected identity-sync write so it reaches the
// caller with the CRM's reasons attached. Transport failures pass through
// unchanged and stay retryable.
func leadWriteError(err error) error {
	var rejected *salesforce.RejectedError
	if errors.As(err, &rejected) {
		return apperr.Provisioning("lead update rejected: " + salesforce.Reasons(rejected.Errors))
	}
	return err
}

// adoptIfConverted re-reads a lead after a rejected write and reports its
// converted triple when another actor finished the conversion first.
func adoptIfConverted(ctx context.Context, crm ports.CRM, leadID string) (domain.ConvertOutcome, bool) {
	rec, err := crm.Retrieve(ctx, "Lead", leadID, convertedLeadFields)
	if err != nil || !rec.Bool("IsConverted") {
		return domain.ConvertOutcome{}, false
	}
	return domain.ConvertOutcome{Triple: domain.ConvertedTriple{
		AccountID:     rec.Str("ConvertedAccountId"),
		ContactID:     rec.Str("ConvertedContactId"),
		OpportunityID: rec.Str("ConvertedOpportunityId"),
	}}, true
}

// NativeConverter converts through the platform's standard lead convert
// action instead of waiting on org automation. It never times out.
type NativeConverter struct {
	crm             ports.CRM
	convertedStatus string
	log             *logger.Logger
}

func NewNativeConverter(crm ports.CRM, convertedStatus string, log *logger.Logger) *NativeConverter {
	if convertedStatus == "" {
		convertedStatus = "Qualified"
	}
	return &NativeConverter{crm: crm, convertedStatus: convertedStatus, log: log}
}

func (c *NativeConverter) Convert(ctx context.Context, lead domain.Lead, reg domain.Registrant) (domain.ConvertOutcome, error) {
	if lead.IsConverted {
		return domain.ConvertOutcome{}, apperr.Internal("refusing to convert an already converted lead")
	}

	// The native path still wants the registrant's identity on the lead so
	// the resulting contact carries it.
	fields := salesforce.Record{
		"FirstName": reg.FirstName,
		"LastName":  reg.LastName,
		"Email":     reg.Email,
		"Phone":     reg.Phone,
		"Company":   nil,
	}
	if err := c.crm.Update(ctx, "Lead", lead.ID, fields, salesforce.AllowDuplicates()); err != nil {
		if outcome, ok := adoptIfConverted(ctx, c.crm, lead.ID); ok {
			c.log.ConversionEvent("converted_concurrently", lead.ID, 0)
			return outcome, nil
		}
		return domain.ConvertOutcome{}, leadWriteError(err)
	}

	res, err := c.crm.ConvertLead(ctx, lead.ID, c.convertedStatus)
	if err != nil {
		return domain.ConvertOutcome{}, err
	}
	if !res.Success {
		return domain.ConvertOutcome{}, apperr.Provisioning("lead conversion rejected: " + salesforce.Reasons(res.Errors))
	}

	c.log.ConversionEvent("converted_native", lead.ID, 1)
	return domain.ConvertOutcome{Triple: domain.ConvertedTriple{
		AccountID:     res.AccountID,
		ContactID:     res.ContactID,
		OpportunityID: res.OpportunityID,
	}}, nil
}
