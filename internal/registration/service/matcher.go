package service

import (
	"context"
	"fmt"
	"strings"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/phone"
)

const leadFields = "Id, FirstName, LastName, Email, Phone, MobilePhone, IsConverted, " +
	"ConvertedAccountId, ConvertedContactId, ConvertedOpportunityId, CreatedDate"

// LeadMatcher finds the existing lead a registrant corresponds to. Email is
// tier one and matches leads in any conversion state; phone is tier two and
// only ever matches unconverted leads, because a phone number is too weak a
// signal to adopt someone else's converted account on.
type LeadMatcher struct {
	crm    ports.CRM
	policy domain.Policy
}

func NewLeadMatcher(crm ports.CRM, policy domain.Policy) *LeadMatcher {
	return &LeadMatcher{crm: crm, policy: policy}
}

// Match returns the best candidate for the registrant, or nil when no lead
// qualifies. The phone argument must already be canonical.
func (m *LeadMatcher) Match(ctx context.Context, reg domain.Registrant) (*domain.MatchCandidate, error) {
	byEmail, err := m.matchByEmail(ctx, reg.Email)
	if err != nil {
		return nil, err
	}
	if byEmail != nil {
		return &domain.MatchCandidate{Lead: *byEmail, Tier: domain.TierEmail}, nil
	}

	if !m.policy.PhoneTierEnabled() || reg.Phone == "" {
		return nil, nil
	}

	byPhone, err := m.matchByPhone(ctx, reg)
	if err != nil {
		return nil, err
	}
	if byPhone != nil {
		return &domain.MatchCandidate{Lead: *byPhone, Tier: domain.TierPhone}, nil
	}
	return nil, nil
}

func (m *LeadMatcher) matchByEmail(ctx context.Context, email string) (*domain.Lead, error) {
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE Email = %s ORDER BY CreatedDate DESC LIMIT 1",
		leadFields, salesforce.Quote(email))
	records, err := m.crm.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	lead := leadFromRecord(records[0])
	return &lead, nil
}

func (m *LeadMatcher) matchByPhone(ctx context.Context, reg domain.Registrant) (*domain.Lead, error) {
	variants := phone.CanonicalVariants(reg.Phone).All()
	if len(variants) == 0 {
		return nil, nil
	}
	in := salesforce.QuoteList(variants)
	soql := fmt.Sprintf(
		"SELECT %s FROM Lead WHERE IsConverted = false AND (Phone IN (%s) OR MobilePhone IN (%s)) "+
			"ORDER BY CreatedDate DESC",
		leadFields, in, in)
	records, err := m.crm.Query(ctx, soql)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		lead := leadFromRecord(rec)
		if m.policy.RequireNameCorroboration && !namesCorroborate(lead, reg) {
			continue
		}
		return &lead, nil
	}
	return nil, nil
}

// namesCorroborate checks that the lead plausibly belongs to the registrant
// before a phone-only match may adopt it.
func namesCorroborate(lead domain.Lead, reg domain.Registrant) bool {
	return strings.EqualFold(strings.TrimSpace(lead.FirstName), strings.TrimSpace(reg.FirstName)) &&
		strings.EqualFold(strings.TrimSpace(lead.LastName), strings.TrimSpace(reg.LastName))
}

func leadFromRecord(rec salesforce.Record) domain.Lead {
	return domain.Lead{
		ID:                     rec.Str("Id"),
		FirstName:              rec.Str("FirstName"),
		LastName:               rec.Str("LastName"),
		Email:                  rec.Str("Email"),
		Phone:                  rec.Str("Phone"),
		MobilePhone:            rec.Str("MobilePhone"),
		IsConverted:            rec.Bool("IsConverted"),
		ConvertedAccountID:     rec.Str("ConvertedAccountId"),
		ConvertedContactID:     rec.Str("ConvertedContactId"),
		ConvertedOpportunityID: rec.Str("ConvertedOpportunityId"),
		CreatedDate:            rec.Str("CreatedDate"),
	}
}
