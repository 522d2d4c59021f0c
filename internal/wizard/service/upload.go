package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"admission_portal_backend/internal/salesforce"
	"admission_portal_backend/internal/wizard/transport"
	"admission_portal_backend/platform/apperr"
)

const (
	photoDocType = "Pas Foto 3x4"
	maxPhotoSize = 1 << 20
)

var allowedPhotoMimes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
}

// UploadPhoto stores the applicant's photo: a ContentVersion published to
// the opportunity, a link to the account's document record so staff tooling
// shows it as uploaded, and an archive copy in object storage.
func (s *Service) UploadPhoto(ctx context.Context, accountID, opportunityID string, req transport.UploadRequest) (transport.UploadResponse, error) {
	if !salesforce.IsID(opportunityID) || !salesforce.IsID(accountID) {
		return transport.UploadResponse{}, apperr.Validation("invalid account or opportunity id")
	}

	mime := strings.ToLower(req.Mime)
	ext, ok := allowedPhotoMimes[mime]
	if !ok {
		return transport.UploadResponse{}, apperr.Validation("photo must be PNG or JPEG")
	}

	data, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return transport.UploadResponse{}, apperr.Validation("photo payload is not valid base64")
	}
	if len(data) > maxPhotoSize {
		return transport.UploadResponse{}, apperr.Validation("photo exceeds the 1MB limit")
	}

	opp, err := s.crm.Retrieve(ctx, "Opportunity", opportunityID, []string{"Name"})
	if err != nil {
		return transport.UploadResponse{}, err
	}
	oppName := opp.Str("Name")
	title := photoDocType + "_" + oppName

	cv, err := s.crm.Create(ctx, "ContentVersion", salesforce.Record{
		"Title":                  title,
		"PathOnClient":           fmt.Sprintf("%s.%s", title, ext),
		"VersionData":            req.Data,
		"FirstPublishLocationId": opportunityID,
	})
	if err != nil {
		return transport.UploadResponse{}, err
	}
	if !cv.Success {
		return transport.UploadResponse{}, apperr.Provisioning("photo upload rejected: " + salesforce.Reasons(cv.Errors))
	}

	docID, err := s.contentDocumentID(ctx, cv.ID)
	if err != nil {
		return transport.UploadResponse{}, err
	}

	// Linking to the account and the document record is best effort; the
	// file already exists on the opportunity.
	s.linkDocument(ctx, docID, accountID)
	if docRecID, err := s.ensureAccountDocument(ctx, accountID, opportunityID, oppName); err == nil {
		s.linkDocument(ctx, docID, docRecID)
	}

	resp := transport.UploadResponse{ContentDocumentID: docID}
	if s.archiver != nil {
		key, err := s.archiver.ArchiveDocument(ctx, opportunityID, "pas-foto", ext, mime, data)
		if err != nil {
			s.log.Error("photo archive failed", "opportunity_id", opportunityID, "error", err.Error())
		} else {
			resp.ArchiveKey = key
		}
	}
	return resp, nil
}

func (s *Service) contentDocumentID(ctx context.Context, versionID string) (string, error) {
	soql := fmt.Sprintf("SELECT ContentDocumentId FROM ContentVersion WHERE Id = %s LIMIT 1",
		salesforce.Quote(versionID))
	records, err := s.crm.Query(ctx, soql)
	if err != nil {
		return "", err
	}
	if len(records) == 0 || records[0].Str("ContentDocumentId") == "" {
		return "", apperr.Provisioning("uploaded photo has no content document")
	}
	return records[0].Str("ContentDocumentId"), nil
}

func (s *Service) linkDocument(ctx context.Context, docID, entityID string) {
	_, err := s.crm.Create(ctx, "ContentDocumentLink", salesforce.Record{
		"ContentDocumentId": docID,
		"LinkedEntityId":    entityID,
		"ShareType":         "V",
		"Visibility":        "AllUsers",
	})
	if err != nil {
		// Duplicate links come back as rejections; nothing to do.
		s.log.CRMError("linkDocument", "ContentDocumentLink", err)
	}
}

// ensureAccountDocument finds or creates the document tracking record for
// the photo requirement.
func (s *Service) ensureAccountDocument(ctx context.Context, accountID, opportunityID, oppName string) (string, error) {
	soql := fmt.Sprintf(
		"SELECT Id FROM Account_Document__c WHERE Account__c = %s "+
			"AND Document_Type__c = %s "+
			"AND (Application_Progress__c = %s OR Application_Progress__c = NULL) "+
			"ORDER BY Application_Progress__c NULLS LAST LIMIT 1",
		salesforce.Quote(accountID), salesforce.Quote(photoDocType), salesforce.Quote(opportunityID))
	records, err := s.crm.Query(ctx, soql)
	if err != nil {
		return "", err
	}
	if len(records) > 0 {
		return records[0].Str("Id"), nil
	}

	res, err := s.crm.Create(ctx, "Account_Document__c", salesforce.Record{
		"Account__c":              accountID,
		"Application_Progress__c": opportunityID,
		"Document_Type__c":        photoDocType,
		"Verified__c":             false,
		"Name":                    strings.TrimSpace(photoDocType + " " + oppName),
	})
	if err != nil {
		return "", err
	}
	if !res.Success {
		return "", apperr.Provisioning("document record rejected: " + salesforce.Reasons(res.Errors))
	}
	return res.ID, nil
}
