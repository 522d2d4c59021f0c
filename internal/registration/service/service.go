package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/registration/transport"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/logger"
	"admission_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// Registration paths recorded in the attempt journal.
const (
	pathProvisioned        = "provisioned"
	pathAdopted            = "adopted"
	pathConverted          = "converted"
	pathTimeoutProvisioned = "timeout-provisioned"
)

// Service runs the registration pipeline: normalize identity, match an
// existing lead, convert or adopt it, and fall back to direct provisioning.
type Service struct {
	matcher     *LeadMatcher
	converter   Converter
	provisioner *Provisioner
	crm         ports.CRM
	policy      domain.Policy
	journal     ports.Journal
	reconciler  ports.ReconcileScheduler
	events      ports.EventPublisher
	log         *logger.Logger
}

func New(
	matcher *LeadMatcher,
	converter Converter,
	provisioner *Provisioner,
	crm ports.CRM,
	policy domain.Policy,
	journal ports.Journal,
	reconciler ports.ReconcileScheduler,
	events ports.EventPublisher,
	log *logger.Logger,
) *Service {
	return &Service{
		matcher:     matcher,
		converter:   converter,
		provisioner: provisioner,
		crm:         crm,
		policy:      policy,
		journal:     journal,
		reconciler:  reconciler,
		events:      events,
		log:         log,
	}
}

// Register processes one registration end to end. The same submission can
// be replayed safely: a registrant who already converted adopts their
// existing account instead of creating a second one.
func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.RegisterResponse, error) {
	canonical := phone.Canonical(req.Phone)
	if canonical == "" {
		return transport.RegisterResponse{}, apperr.Validation("phone number has no digits")
	}
	if !phone.IsValid(canonical) {
		return transport.RegisterResponse{}, apperr.Validation("phone number is not valid")
	}

	reg := domain.Registrant{
		RequestID:    uuid.NewString(),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        canonical,
		PasswordHash: HashPassword(req.Password),
		SchoolID:     req.SchoolID,
	}

	if s.policy.EnforceUniqueEmail {
		taken, err := s.emailTaken(ctx, reg.Email)
		if err != nil {
			return transport.RegisterResponse{}, err
		}
		if taken {
			return transport.RegisterResponse{}, apperr.Conflict("an account with this email already exists")
		}
	}

	candidate, err := s.matcher.Match(ctx, reg)
	if err != nil {
		return transport.RegisterResponse{}, err
	}

	// A phone-tier candidate whose lead carries a different email belongs
	// to someone else; never adopt or convert it.
	if candidate != nil && candidate.Tier == domain.TierPhone &&
		candidate.Lead.Email != "" && !strings.EqualFold(candidate.Lead.Email, reg.Email) {
		s.log.ConversionEvent("phone_match_email_mismatch", candidate.Lead.ID, 0)
		candidate = nil
	}

	var res domain.Result
	switch {
	case candidate == nil:
		res, err = s.provision(ctx, reg, pathProvisioned, "")
	case candidate.Lead.IsConverted:
		res, err = s.adopt(ctx, reg, candidate.Lead)
	default:
		res, err = s.convert(ctx, reg, candidate.Lead)
	}
	if err != nil {
		s.record(ctx, reg, ports.AttemptRecord{
			Path:          "failed",
			LeadID:        leadID(candidate),
			FailureReason: err.Error(),
		})
		return transport.RegisterResponse{}, err
	}

	s.events.PublishRegistrationCompleted(ctx, ports.CompletedEvent{
		AccountID:     res.AccountID,
		OpportunityID: res.OpportunityID,
		Email:         res.Email,
		FirstName:     res.FirstName,
		LastName:      res.LastName,
	})

	return transport.RegisterResponse{
		AccountID:     res.AccountID,
		OpportunityID: res.OpportunityID,
		FirstName:     res.FirstName,
		LastName:      res.LastName,
		Email:         res.Email,
		Phone:         res.Phone,
		Reconciling:   res.Reconciling,
	}, nil
}

// provision creates the account and opportunity directly.
func (s *Service) provision(ctx context.Context, reg domain.Registrant, path, leadID string) (domain.Result, error) {
	accountID, oppID, err := s.provisioner.CreateAccountAndOpportunity(ctx, reg)
	if err != nil {
		return domain.Result{}, err
	}
	s.record(ctx, reg, ports.AttemptRecord{
		Path:          path,
		LeadID:        leadID,
		AccountID:     accountID,
		OpportunityID: oppID,
		TimedOut:      path == pathTimeoutProvisioned,
	})
	return s.result(reg, accountID, oppID, path == pathTimeoutProvisioned), nil
}

// adopt reuses the account an email-matched lead already converted into.
func (s *Service) adopt(ctx context.Context, reg domain.Registrant, lead domain.Lead) (domain.Result, error) {
	accountID := lead.ConvertedAccountID
	if accountID == "" {
		// Converted without an account is a data integrity problem on the
		// CRM side; fall back to provisioning rather than failing the user.
		s.log.ConversionEvent("converted_lead_without_account", lead.ID, 0)
		return s.provision(ctx, reg, pathProvisioned, lead.ID)
	}

	oppID, err := s.provisioner.EnsureOpportunity(ctx, accountID, reg.FirstName, reg.LastName)
	if err != nil {
		return domain.Result{}, err
	}

	s.refreshAccount(ctx, accountID, reg)
	s.record(ctx, reg, ports.AttemptRecord{
		Path:          pathAdopted,
		LeadID:        lead.ID,
		AccountID:     accountID,
		OpportunityID: oppID,
	})
	return s.result(reg, accountID, oppID, false), nil
}

// convert drives the lead conversion and handles the timeout fallback.
func (s *Service) convert(ctx context.Context, reg domain.Registrant, lead domain.Lead) (domain.Result, error) {
	outcome, err := s.converter.Convert(ctx, lead, reg)
	if err != nil {
		return domain.Result{}, err
	}

	if outcome.TimedOut {
		res, err := s.provision(ctx, reg, pathTimeoutProvisioned, lead.ID)
		if err != nil {
			return domain.Result{}, err
		}
		if err := s.reconciler.ScheduleLeadCheck(ctx, lead.ID, res.AccountID, res.OpportunityID); err != nil {
			s.log.CRMError("scheduleReconcile", "Lead", err)
		}
		return res, nil
	}

	accountID := outcome.Triple.AccountID
	if accountID == "" {
		// Converted without an account is a data integrity problem on the
		// CRM side; fall back to provisioning rather than failing the user.
		s.log.ConversionEvent("converted_lead_without_account", lead.ID, 0)
		return s.provision(ctx, reg, pathProvisioned, lead.ID)
	}

	oppID := outcome.Triple.OpportunityID
	if oppID == "" {
		// Some automations convert without opening an opportunity.
		oppID, err = s.provisioner.CreateOpportunity(ctx, accountID, reg.FirstName, reg.LastName)
		if err != nil {
			return domain.Result{}, err
		}
	}

	s.refreshAccount(ctx, accountID, reg)
	s.record(ctx, reg, ports.AttemptRecord{
		Path:          pathConverted,
		LeadID:        lead.ID,
		AccountID:     accountID,
		OpportunityID: oppID,
	})
	return s.result(reg, accountID, oppID, false), nil
}

// refreshAccount writes the registrant's credentials and phone aliases onto
// an account the pipeline did not create itself. Best effort.
func (s *Service) refreshAccount(ctx context.Context, accountID string, reg domain.Registrant) {
	fields := salesforce.Record{}
	for _, alias := range s.policy.PhoneFieldAliases {
		fields[alias] = reg.Phone
	}
	if reg.PasswordHash != "" {
		fields["Password__c"] = reg.PasswordHash
	}
	if reg.SchoolID != "" {
		fields["Master_School__c"] = reg.SchoolID
	}
	if err := s.crm.Update(ctx, "Account", accountID, fields, salesforce.AllowDuplicates()); err != nil {
		s.log.CRMError("refreshAccount", "Account", err)
	}
}

func (s *Service) emailTaken(ctx context.Context, email string) (bool, error) {
	soql := fmt.Sprintf("SELECT Id FROM Account WHERE PersonEmail = %s LIMIT 1", salesforce.Quote(email))
	records, err := s.crm.Query(ctx, soql)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

func (s *Service) record(ctx context.Context, reg domain.Registrant, rec ports.AttemptRecord) {
	rec.RequestID = reg.RequestID
	rec.Email = reg.Email
	rec.Phone = reg.Phone
	if err := s.journal.RecordAttempt(ctx, rec); err != nil {
		s.log.CRMError("journalAttempt", "registration_attempts", err)
	}
}

func (s *Service) result(reg domain.Registrant, accountID, oppID string, reconciling bool) domain.Result {
	return domain.Result{
		AccountID:     accountID,
		OpportunityID: oppID,
		FirstName:     reg.FirstName,
		LastName:      reg.LastName,
		Email:         reg.Email,
		Phone:         reg.Phone,
		Reconciling:   reconciling,
	}
}

func leadID(c *domain.MatchCandidate) string {
	if c == nil {
		return ""
	}
	return c.Lead.ID
}

// HashPassword produces the hex digest stored in the account's legacy
// password field.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
