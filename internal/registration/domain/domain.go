// Package domain holds the registration pipeline's core types: the CRM
// projections it works with, the match/convert outcomes it passes between
// stages, and the policy knobs that steer matching and provisioning.
package domain

import "time"

// Opportunity stage names used by the admission pipeline.
const (
	StageBookingForm  = "Booking Form"
	StageRegistration = "Registration"
)

// Web_Stage__c checkpoints a candidate moves through in the wizard.
const (
	WebStageRegistered    = 1
	WebStageLoggedIn      = 2
	WebStageProgramChosen = 3
	WebStageEducation     = 4
	WebStageDocuments     = 5
	WebStageFinalized     = 6
)

// OpportunityRecordType is the DeveloperName of the record type every
// admission opportunity is created under.
const OpportunityRecordType = "University"

// CloseDateOffset is how far in the future a fresh opportunity closes.
const CloseDateOffset = 30 * 24 * time.Hour

// MatchTier says which identity signal produced a lead match. Email is
// authoritative; phone matches are corroborating evidence only.
type MatchTier int

const (
	TierNone MatchTier = iota
	TierEmail
	TierPhone
)

func (t MatchTier) String() string {
	switch t {
	case TierEmail:
		return "email"
	case TierPhone:
		return "phone"
	default:
		return "none"
	}
}

// Lead is the projection of a CRM lead the pipeline cares about.
type Lead struct {
	ID                     string
	FirstName              string
	LastName               string
	Email                  string
	Phone                  string
	MobilePhone            string
	IsConverted            bool
	ConvertedAccountID     string
	ConvertedContactID     string
	ConvertedOpportunityID string
	CreatedDate            string
}

// MatchCandidate is a lead picked by the matcher together with the tier
// that selected it.
type MatchCandidate struct {
	Lead Lead
	Tier MatchTier
}

// ConvertedTriple is the account/contact/opportunity a conversion yields.
type ConvertedTriple struct {
	AccountID     string
	ContactID     string
	OpportunityID string
}

// ConvertOutcome reports how a conversion attempt ended. TimedOut means the
// flag was raised but automation never confirmed within the poll budget; the
// caller falls back to direct provisioning and schedules a later re-check.
type ConvertOutcome struct {
	Triple   ConvertedTriple
	TimedOut bool
}

// Registrant is the identity a new applicant submits.
type Registrant struct {
	// RequestID correlates the journal rows and log lines of one attempt.
	RequestID string

	FirstName    string
	LastName     string
	Email        string
	Phone        string
	PasswordHash string
	SchoolID     string
}

// Result is what a completed registration hands back to the caller,
// regardless of which path (conversion, adoption, provisioning) produced it.
type Result struct {
	AccountID     string
	OpportunityID string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	Reconciling   bool
}
