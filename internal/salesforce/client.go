// Package salesforce is the thin client for the CRM data service. It exposes
// the query/create/update/retrieve/convert contract the registration core
// needs and nothing else; schema and persistence stay on the CRM side.
package salesforce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/logger"
)

const duplicateRuleHeader = "Sforce-Duplicate-Rule-Header"

// CallOption customizes a single write call.
type CallOption func(*callOptions)

type callOptions struct {
	allowDuplicates bool
}

// AllowDuplicates passes the duplicate-rule bypass directive so legitimate
// re-registrations (shared guardian phone/email) are not blocked by the org's
// generic duplicate detection.
func AllowDuplicates() CallOption {
	return func(o *callOptions) {
		o.allowDuplicates = true
	}
}

// Client talks to the Salesforce REST API through an injected Session.
type Client struct {
	http       *http.Client
	session    *Session
	apiVersion string
	log        *logger.Logger
}

// NewClient creates a CRM client. The session handle is shared and owns
// authentication; the client only consumes it.
func NewClient(session *Session, apiVersion string, log *logger.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: 15 * time.Second},
		session:    session,
		apiVersion: apiVersion,
		log:        log,
	}
}

type queryResponse struct {
	TotalSize      int      `json:"totalSize"`
	Done           bool     `json:"done"`
	NextRecordsURL string   `json:"nextRecordsUrl"`
	Records        []Record `json:"records"`
}

// Query runs a SOQL query and returns all pages of records.
func (c *Client) Query(ctx context.Context, soql string) ([]Record, error) {
	start := time.Now()
	path := fmt.Sprintf("/services/data/%s/query?q=%s", c.apiVersion, url.QueryEscape(soql))

	var records []Record
	for {
		body, err := c.do(ctx, http.MethodGet, path, nil, nil)
		if err != nil {
			c.log.CRMError("query", "", err)
			return nil, err
		}

		var page queryResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, apperr.Unavailable("crm query response malformed", err)
		}
		records = append(records, page.Records...)

		if page.Done || page.NextRecordsURL == "" {
			break
		}
		path = page.NextRecordsURL
	}

	c.log.CRMCall("query", "", float64(time.Since(start).Milliseconds()))
	return records, nil
}

// Create inserts a record. A duplicate-rule or validation rejection comes
// back as an unsuccessful SaveResult, not an error; errors are reserved for
// infrastructure failure.
func (c *Client) Create(ctx context.Context, objectType string, fields Record, opts ...CallOption) (SaveResult, error) {
	options := applyOptions(opts)
	path := fmt.Sprintf("/services/data/%s/sobjects/%s", c.apiVersion, objectType)

	payload, err := json.Marshal(fields)
	if err != nil {
		return SaveResult{}, apperr.Internal("crm create payload marshal failed")
	}

	headers := writeHeaders(options)
	body, err := c.do(ctx, http.MethodPost, path, payload, headers)
	if err != nil {
		if rejected, ok := asRejection(err); ok {
			return SaveResult{Success: false, Errors: rejected.Errors}, nil
		}
		c.log.CRMError("create", objectType, err)
		return SaveResult{}, err
	}

	var result SaveResult
	if err := json.Unmarshal(body, &result); err != nil {
		return SaveResult{}, apperr.Unavailable("crm create response malformed", err)
	}
	return result, nil
}

// Update patches a record. CRM rejections are returned as *RejectedError so
// callers can attach the reasons; infrastructure failures are retryable.
func (c *Client) Update(ctx context.Context, objectType, id string, fields Record, opts ...CallOption) error {
	options := applyOptions(opts)
	path := fmt.Sprintf("/services/data/%s/sobjects/%s/%s", c.apiVersion, objectType, id)

	payload, err := json.Marshal(fields)
	if err != nil {
		return apperr.Internal("crm update payload marshal failed")
	}

	if _, err := c.do(ctx, http.MethodPatch, path, payload, writeHeaders(options)); err != nil {
		if _, ok := asRejection(err); !ok {
			c.log.CRMError("update", objectType, err)
		}
		return err
	}
	return nil
}

// Retrieve fetches one record by id, limited to the requested fields.
func (c *Client) Retrieve(ctx context.Context, objectType, id string, fields []string) (Record, error) {
	path := fmt.Sprintf("/services/data/%s/sobjects/%s/%s", c.apiVersion, objectType, id)
	if len(fields) > 0 {
		path += "?fields=" + url.QueryEscape(strings.Join(fields, ","))
	}

	body, err := c.do(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		c.log.CRMError("retrieve", objectType, err)
		return nil, err
	}

	var record Record
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, apperr.Unavailable("crm retrieve response malformed", err)
	}
	return record, nil
}

type convertInput struct {
	LeadID          string `json:"leadId"`
	ConvertedStatus string `json:"convertedStatus"`
	CreateOpportunity bool `json:"createOpportunity"`
}

type convertActionRequest struct {
	Inputs []convertInput `json:"inputs"`
}

type convertActionResult struct {
	IsSuccess    bool `json:"isSuccess"`
	OutputValues struct {
		AccountID     string `json:"accountId"`
		ContactID     string `json:"contactId"`
		OpportunityID string `json:"opportunityId"`
	} `json:"outputValues"`
	Errors []SaveError `json:"errors"`
}

// ConvertLead invokes the CRM's native conversion through the standard
// invocable action, returning the converted triple synchronously.
func (c *Client) ConvertLead(ctx context.Context, leadID, convertedStatus string) (ConvertResult, error) {
	path := fmt.Sprintf("/services/data/%s/actions/standard/LeadConvert", c.apiVersion)

	payload, err := json.Marshal(convertActionRequest{
		Inputs: []convertInput{{
			LeadID:            leadID,
			ConvertedStatus:   convertedStatus,
			CreateOpportunity: true,
		}},
	})
	if err != nil {
		return ConvertResult{}, apperr.Internal("crm convert payload marshal failed")
	}

	body, err := c.do(ctx, http.MethodPost, path, payload, nil)
	if err != nil {
		if rejected, ok := asRejection(err); ok {
			return ConvertResult{Success: false, Errors: rejected.Errors}, nil
		}
		c.log.CRMError("convertLead", "Lead", err)
		return ConvertResult{}, err
	}

	var results []convertActionResult
	if err := json.Unmarshal(body, &results); err != nil {
		return ConvertResult{}, apperr.Unavailable("crm convert response malformed", err)
	}
	if len(results) == 0 {
		return ConvertResult{}, apperr.Unavailable("crm convert returned no result", nil)
	}

	first := results[0]
	return ConvertResult{
		Success:       first.IsSuccess,
		AccountID:     first.OutputValues.AccountID,
		ContactID:     first.OutputValues.ContactID,
		OpportunityID: first.OutputValues.OpportunityID,
		Errors:        first.Errors,
	}, nil
}

// do performs one authenticated request, retrying exactly once after an
// expired-session response.
func (c *Client) do(ctx context.Context, method, path string, payload []byte, headers map[string]string) ([]byte, error) {
	body, retry, err := c.doOnce(ctx, method, path, payload, headers)
	if retry {
		c.session.Invalidate()
		body, _, err = c.doOnce(ctx, method, path, payload, headers)
	}
	return body, err
}

func (c *Client) doOnce(ctx context.Context, method, path string, payload []byte, headers map[string]string) (respBody []byte, sessionExpired bool, err error) {
	token, instanceURL, err := c.session.Credentials(ctx)
	if err != nil {
		return nil, false, err
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, instanceURL+path, reader)
	if err != nil {
		return nil, false, apperr.Unavailable("crm request build failed", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, false, apperr.Unavailable("crm unreachable", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, apperr.Unavailable("crm response unreadable", err)
	}

	switch {
	case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
		return body, false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, true, apperr.Unavailable("crm session expired", nil)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, false, apperr.Unavailable(fmt.Sprintf("crm server error (%d)", resp.StatusCode), nil)
	default:
		if errs := parseSaveErrors(body); len(errs) > 0 {
			return nil, false, &RejectedError{Errors: errs}
		}
		return nil, false, apperr.Unavailable(
			fmt.Sprintf("crm returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}
}

func parseSaveErrors(body []byte) []SaveError {
	var errs []struct {
		Message   string   `json:"message"`
		ErrorCode string   `json:"errorCode"`
		Fields    []string `json:"fields"`
	}
	if err := json.Unmarshal(body, &errs); err != nil {
		return nil
	}
	out := make([]SaveError, 0, len(errs))
	for _, e := range errs {
		out = append(out, SaveError{StatusCode: e.ErrorCode, Message: e.Message, Fields: e.Fields})
	}
	return out
}

func asRejection(err error) (*RejectedError, bool) {
	rejected, ok := err.(*RejectedError)
	return rejected, ok
}

func writeHeaders(o callOptions) map[string]string {
	if !o.allowDuplicates {
		return nil
	}
	return map[string]string{duplicateRuleHeader: "allowSave=true"}
}

func applyOptions(opts []CallOption) callOptions {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
