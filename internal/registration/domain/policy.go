package domain

import (
	"fmt"
	"os"
	"time"

	"admission_portal_backend/platform/config"

	"gopkg.in/yaml.v3"
)

// Matching strategies.
const (
	MatchEmailThenPhone = "email-then-phone"
	MatchEmailOnly      = "email-only"
)

// Opportunity reuse strategies for adopted accounts.
const (
	ReuseLatest = "reuse-latest"
	AlwaysFresh = "always-fresh"
)

// Policy steers the matcher, converter and provisioner. Defaults come from
// the environment; a YAML policy file can override individual fields.
type Policy struct {
	MatchTier                string        `yaml:"matchTier"`
	RequireNameCorroboration bool          `yaml:"requireNameCorroboration"`
	OpportunityReuse         string        `yaml:"opportunityReuse"`
	EnforceUniqueEmail       bool          `yaml:"enforceUniqueEmail"`
	PollInterval             time.Duration `yaml:"pollInterval"`
	PollMaxAttempts          int           `yaml:"pollMaxAttempts"`
	PhoneFieldAliases        []string      `yaml:"phoneFieldAliases"`
}

// DefaultPolicy mirrors the environment defaults.
func DefaultPolicy() Policy {
	return Policy{
		MatchTier:         MatchEmailThenPhone,
		OpportunityReuse:  AlwaysFresh,
		PollInterval:      700 * time.Millisecond,
		PollMaxAttempts:   14,
		PhoneFieldAliases: []string{"Phone", "PersonMobilePhone", "PersonHomePhone"},
	}
}

// PolicyFromConfig builds the effective policy: environment values first,
// then the optional YAML file on top.
func PolicyFromConfig(cfg *config.Config) (Policy, error) {
	p := Policy{
		MatchTier:                cfg.MatchTier,
		RequireNameCorroboration: cfg.RequireNameCorroboration,
		OpportunityReuse:         cfg.OpportunityReuse,
		EnforceUniqueEmail:       cfg.EnforceUniqueEmail,
		PollInterval:             cfg.PollInterval,
		PollMaxAttempts:          cfg.PollMaxAttempts,
		PhoneFieldAliases:        cfg.PhoneFieldAliases,
	}
	if cfg.PolicyFile != "" {
		if err := p.loadFile(cfg.PolicyFile); err != nil {
			return Policy{}, err
		}
	}
	return p, p.Validate()
}

func (p *Policy) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read policy file: %w", err)
	}
	if err := yaml.Unmarshal(raw, p); err != nil {
		return fmt.Errorf("parse policy file %s: %w", path, err)
	}
	return nil
}

// Validate rejects unknown strategy names and nonsensical poll budgets.
func (p Policy) Validate() error {
	switch p.MatchTier {
	case MatchEmailThenPhone, MatchEmailOnly:
	default:
		return fmt.Errorf("unknown match tier %q", p.MatchTier)
	}
	switch p.OpportunityReuse {
	case ReuseLatest, AlwaysFresh:
	default:
		return fmt.Errorf("unknown opportunity reuse policy %q", p.OpportunityReuse)
	}
	if p.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", p.PollInterval)
	}
	if p.PollMaxAttempts < 1 {
		return fmt.Errorf("poll attempts must be at least 1, got %d", p.PollMaxAttempts)
	}
	if len(p.PhoneFieldAliases) == 0 {
		return fmt.Errorf("at least one phone field alias is required")
	}
	return nil
}

// PhoneTierEnabled says whether phone matching is enabled at all.
func (p Policy) PhoneTierEnabled() bool {
	return p.MatchTier == MatchEmailThenPhone
}
