package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/config"
)

// Session is an explicitly passed, lazily refreshed CRM session handle.
// It logs in on first use and re-authenticates once the configured TTL has
// elapsed or after Invalidate. It is safe for concurrent use and is injected
// into the Client rather than held as package state.
type Session struct {
	cfg  config.SalesforceConfig
	http *http.Client

	mu          sync.Mutex
	accessToken string
	instanceURL string
	obtainedAt  time.Time
}

// NewSession creates a session handle. No network call happens until the
// first Credentials request.
func NewSession(cfg config.SalesforceConfig, httpClient *http.Client) *Session {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Session{cfg: cfg, http: httpClient}
}

// Credentials returns a valid access token and instance URL, logging in when
// the cached session is absent or expired.
func (s *Session) Credentials(ctx context.Context) (token, instanceURL string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Since(s.obtainedAt) < s.cfg.GetSFSessionTTL() {
		return s.accessToken, s.instanceURL, nil
	}

	if err := s.loginLocked(ctx); err != nil {
		return "", "", err
	}
	return s.accessToken, s.instanceURL, nil
}

// Invalidate drops the cached session so the next call re-authenticates.
// Called by the client when the CRM reports the session as expired.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accessToken = ""
}

type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	InstanceURL      string `json:"instance_url"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (s *Session) loginLocked(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", s.cfg.GetSFClientID())
	form.Set("client_secret", s.cfg.GetSFClientSecret())
	form.Set("username", s.cfg.GetSFUsername())
	// The security token is appended to the password, same contract as the
	// SOAP login the org automation expects.
	form.Set("password", s.cfg.GetSFPassword()+s.cfg.GetSFSecurityToken())

	endpoint := strings.TrimRight(s.cfg.GetSFLoginURL(), "/") + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return apperr.Unavailable("crm login request failed", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return apperr.Unavailable("crm login failed", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Unavailable("crm login response unreadable", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return apperr.Unavailable("crm login response malformed", err)
	}
	if resp.StatusCode != http.StatusOK || tr.AccessToken == "" {
		return apperr.Unavailable(
			fmt.Sprintf("crm login rejected (%d): %s %s", resp.StatusCode, tr.Error, tr.ErrorDescription),
			nil,
		)
	}

	s.accessToken = tr.AccessToken
	s.instanceURL = strings.TrimRight(tr.InstanceURL, "/")
	s.obtainedAt = time.Now()
	return nil
}
