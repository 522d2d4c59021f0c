// Package service implements web-to-lead intake.
package service

import (
	"context"
	"strings"

	"admission_portal_backend/internal/intake/transport"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/logger"
	"admission_portal_backend/platform/phone"
)

// EventPublisher announces captured web leads to the rest of the app.
type EventPublisher interface {
	PublishWebLeadCaptured(ctx context.Context, leadID, email string)
}

type Service struct {
	crm    ports.CRM
	events EventPublisher
	log    *logger.Logger
}

func New(crm ports.CRM, events EventPublisher, log *logger.Logger) *Service {
	return &Service{crm: crm, events: events, log: log}
}

// Submit creates a web lead. Company stays unset so the lead can later
// convert into a person account.
func (s *Service) Submit(ctx context.Context, req transport.WebToLeadRequest) (transport.WebToLeadResponse, error) {
	canonical := phone.Canonical(req.Phone)
	if canonical == "" {
		return transport.WebToLeadResponse{}, apperr.Validation("phone number has no digits")
	}
	if !phone.IsValid(canonical) {
		return transport.WebToLeadResponse{}, apperr.Validation("phone number is not valid")
	}

	lastName := strings.TrimSpace(req.LastName)
	if lastName == "" {
		// Lead requires a last name.
		lastName = "-"
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	fields := salesforce.Record{
		"FirstName":  strings.TrimSpace(req.FirstName),
		"LastName":   lastName,
		"Email":      email,
		"Phone":      canonical,
		"LeadSource": "Web",
	}
	if req.CampusID != "" {
		fields["Campus__c"] = req.CampusID
	}
	if req.Description != "" {
		fields["Description"] = req.Description
	}

	res, err := s.crm.Create(ctx, "Lead", fields, salesforce.AllowDuplicates())
	if err != nil {
		return transport.WebToLeadResponse{}, err
	}
	if !res.Success {
		return transport.WebToLeadResponse{}, apperr.Provisioning("lead create rejected: " + salesforce.Reasons(res.Errors))
	}

	s.log.Info("web_lead_created", "lead_id", res.ID)
	s.events.PublishWebLeadCaptured(ctx, res.ID, email)
	return transport.WebToLeadResponse{LeadID: res.ID}, nil
}
