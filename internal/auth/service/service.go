// Package service implements portal login against CRM person accounts.
package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"

	"admission_portal_backend/internal/auth/transport"
	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/config"
	"admission_portal_backend/platform/logger"

	"golang.org/x/crypto/bcrypt"
)

const msgBadCredentials = "email or password is incorrect"

// OpportunityOpener opens the fresh opportunity a login session works on.
type OpportunityOpener interface {
	CreateOpportunityAtStage(ctx context.Context, accountID, firstName, lastName string, webStage int) (string, error)
}

type Service struct {
	crm   ports.CRM
	opps  OpportunityOpener
	clock ports.Clock
	cfg   config.JWTConfig
	log   *logger.Logger
}

func New(crm ports.CRM, opps OpportunityOpener, clock ports.Clock, cfg config.JWTConfig, log *logger.Logger) *Service {
	return &Service{crm: crm, opps: opps, clock: clock, cfg: cfg, log: log}
}

// Login verifies the credentials against the person account's stored hash
// and opens a new opportunity for this session. Every login gets its own
// opportunity; reusing an old one would let two sessions trample each other.
func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	account, err := s.findAccount(ctx, email)
	if err != nil {
		return transport.LoginResponse{}, err
	}
	if account == nil {
		s.log.AuthEvent("login", email, false, "account not found")
		return transport.LoginResponse{}, apperr.Unauthorized(msgBadCredentials)
	}

	if !verifyPassword(account.Str("Password__c"), req.Password) {
		s.log.AuthEvent("login", email, false, "password mismatch")
		return transport.LoginResponse{}, apperr.Unauthorized(msgBadCredentials)
	}

	accountID := account.Str("Id")
	firstName := account.Str("FirstName")
	lastName := account.Str("LastName")

	oppID, err := s.opps.CreateOpportunityAtStage(ctx, accountID, firstName, lastName, domain.WebStageLoggedIn)
	if err != nil {
		return transport.LoginResponse{}, err
	}

	token, err := IssueSessionToken(s.cfg, accountID, oppID, s.clock.Now())
	if err != nil {
		return transport.LoginResponse{}, err
	}

	s.log.AuthEvent("login", email, true, "")

	phone := account.Str("PersonMobilePhone")
	if phone == "" {
		phone = account.Str("PersonHomePhone")
	}

	return transport.LoginResponse{
		Token:         token,
		ExpiresIn:     int64(s.cfg.GetSessionTokenTTL().Seconds()),
		AccountID:     accountID,
		OpportunityID: oppID,
		FirstName:     firstName,
		LastName:      lastName,
		Phone:         phone,
	}, nil
}

func (s *Service) findAccount(ctx context.Context, email string) (salesforce.Record, error) {
	soql := fmt.Sprintf(
		"SELECT Id, FirstName, LastName, PersonEmail, PersonMobilePhone, PersonHomePhone, Password__c "+
			"FROM Account WHERE IsPersonAccount = true AND PersonEmail = %s LIMIT 1",
		salesforce.Quote(email))
	records, err := s.crm.Query(ctx, soql)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return records[0], nil
}

// verifyPassword accepts both hash formats found in the password field:
// legacy hex sha256 digests and bcrypt hashes written by newer tooling.
func verifyPassword(stored, plain string) bool {
	if stored == "" {
		return false
	}
	if strings.HasPrefix(stored, "$2") {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	sum := sha256.Sum256([]byte(plain))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(strings.ToLower(stored)), []byte(digest)) == 1
}
