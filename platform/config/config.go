// Package config provides application configuration loaded from the
// environment. This is part of the platform layer and contains no business
// logic. Consumers should depend on the narrow getter interfaces below rather
// than on the full Config struct.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// HTTPConfig exposes the settings the HTTP router needs.
type HTTPConfig interface {
	GetEnv() string
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
}

// JWTConfig exposes the settings used for wizard session tokens.
type JWTConfig interface {
	GetJWTSecret() string
	GetSessionTokenTTL() time.Duration
}

// DatabaseConfig exposes the journal database settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// SchedulerConfig exposes the settings for the asynq reconcile queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// SalesforceConfig exposes the CRM connection settings.
type SalesforceConfig interface {
	GetSFLoginURL() string
	GetSFUsername() string
	GetSFPassword() string
	GetSFSecurityToken() string
	GetSFClientID() string
	GetSFClientSecret() string
	GetSFAPIVersion() string
	GetSFSessionTTL() time.Duration
	GetSFNativeConvert() bool
	GetSFConvertedStatus() string
}

// StorageConfig exposes the MinIO settings for wizard uploads.
type StorageConfig interface {
	IsMinIOEnabled() bool
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOBucketUploads() string
	GetMinIOMaxFileSize() int64
}

// EmailConfig exposes the SMTP settings for outbound mail.
type EmailConfig interface {
	IsEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
}

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string

	CORSAllowAll bool
	CORSOrigins  []string

	JWTSecret       string
	SessionTokenTTL time.Duration

	DatabaseURL string

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueue       string
	AsynqConcurrency int

	SFLoginURL        string
	SFUsername        string
	SFPassword        string
	SFSecurityToken   string
	SFClientID        string
	SFClientSecret    string
	SFAPIVersion      string
	SFSessionTTL      time.Duration
	SFNativeConvert   bool
	SFConvertedStatus string

	// PolicyFile optionally points at a YAML file overriding the
	// registration policy knobs below.
	PolicyFile               string
	MatchTier                string
	RequireNameCorroboration bool
	OpportunityReuse         string
	EnforceUniqueEmail       bool
	PollInterval             time.Duration
	PollMaxAttempts          int
	PhoneFieldAliases        []string

	MinioEndpoint      string
	MinioAccessKey     string
	MinioSecretKey     string
	MinioUseSSL        bool
	MinioBucketUploads string
	MinioMaxFileSize   int64

	// PortalURL is the public URL of the applicant portal, used in
	// outbound mail.
	PortalURL string

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromName    string
	EmailFromAddress string
}

// Load reads configuration from the environment (and .env when present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("APP_ENV", "development"),
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),

		CORSAllowAll: boolEnv("CORS_ALLOW_ALL", false),
		CORSOrigins:  splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200")),

		JWTSecret:       getEnv("JWT_SECRET", ""),
		SessionTokenTTL: durationEnv("SESSION_TOKEN_TTL", 2*time.Hour),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: boolEnv("REDIS_TLS_INSECURE", false),
		AsynqQueue:       getEnv("ASYNQ_QUEUE", "default"),
		AsynqConcurrency: intEnv("ASYNQ_CONCURRENCY", 10),

		SFLoginURL:        getEnv("SF_LOGIN_URL", ""),
		SFUsername:        getEnv("SF_USERNAME", ""),
		SFPassword:        getEnv("SF_PASSWORD", ""),
		SFSecurityToken:   getEnv("SF_TOKEN", ""),
		SFClientID:        getEnv("SF_CLIENT_ID", ""),
		SFClientSecret:    getEnv("SF_CLIENT_SECRET", ""),
		SFAPIVersion:      getEnv("SF_API_VERSION", "v59.0"),
		SFSessionTTL:      durationEnv("SF_SESSION_TTL", 20*time.Minute),
		SFNativeConvert:   boolEnv("SF_NATIVE_CONVERT", false),
		SFConvertedStatus: getEnv("SF_CONVERTED_STATUS", ""),

		PolicyFile:               getEnv("POLICY_FILE", ""),
		MatchTier:                getEnv("MATCH_TIER", "email-then-phone"),
		RequireNameCorroboration: boolEnv("REQUIRE_NAME_CORROBORATION", false),
		OpportunityReuse:         getEnv("OPPORTUNITY_REUSE_POLICY", "always-fresh"),
		EnforceUniqueEmail:       boolEnv("ENFORCE_UNIQUE_EMAIL", false),
		PollInterval:             durationEnv("CONVERT_POLL_INTERVAL", 700*time.Millisecond),
		PollMaxAttempts:          intEnv("CONVERT_POLL_MAX_ATTEMPTS", 14),
		PhoneFieldAliases:        splitCSV(getEnv("PHONE_FIELD_ALIASES", "Phone,PersonMobilePhone,PersonHomePhone")),

		MinioEndpoint:      getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:        boolEnv("MINIO_USE_SSL", false),
		MinioBucketUploads: getEnv("MINIO_BUCKET_UPLOADS", "registration-uploads"),
		MinioMaxFileSize:   int64(intEnv("MINIO_MAX_FILE_SIZE", 10*1024*1024)),

		PortalURL: getEnv("PORTAL_URL", "http://localhost:4200"),

		EmailEnabled:     boolEnv("EMAIL_ENABLED", false),
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         intEnv("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "Admissions"),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),
	}

	if cfg.SFLoginURL == "" || cfg.SFUsername == "" || cfg.SFPassword == "" {
		return nil, fmt.Errorf("SF_LOGIN_URL, SF_USERNAME and SF_PASSWORD are required")
	}
	if cfg.SFClientID == "" || cfg.SFClientSecret == "" {
		return nil, fmt.Errorf("SF_CLIENT_ID and SF_CLIENT_SECRET are required")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "") {
		return nil, fmt.Errorf("SMTP_HOST and EMAIL_FROM_ADDRESS are required when EMAIL_ENABLED is true")
	}

	return cfg, nil
}

// HTTPConfig implementation.

func (c *Config) GetEnv() string           { return c.Env }
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }

// JWTConfig implementation.

func (c *Config) GetJWTSecret() string              { return c.JWTSecret }
func (c *Config) GetSessionTokenTTL() time.Duration { return c.SessionTokenTTL }

// DatabaseConfig implementation.

func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// SchedulerConfig implementation.

func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueue }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// SalesforceConfig implementation.

func (c *Config) GetSFLoginURL() string          { return c.SFLoginURL }
func (c *Config) GetSFUsername() string          { return c.SFUsername }
func (c *Config) GetSFPassword() string          { return c.SFPassword }
func (c *Config) GetSFSecurityToken() string     { return c.SFSecurityToken }
func (c *Config) GetSFClientID() string          { return c.SFClientID }
func (c *Config) GetSFClientSecret() string      { return c.SFClientSecret }
func (c *Config) GetSFAPIVersion() string        { return c.SFAPIVersion }
func (c *Config) GetSFSessionTTL() time.Duration { return c.SFSessionTTL }
func (c *Config) GetSFNativeConvert() bool       { return c.SFNativeConvert }
func (c *Config) GetSFConvertedStatus() string   { return c.SFConvertedStatus }

// StorageConfig implementation.

func (c *Config) IsMinIOEnabled() bool          { return c.MinioEndpoint != "" }
func (c *Config) GetMinIOEndpoint() string      { return c.MinioEndpoint }
func (c *Config) GetMinIOAccessKey() string     { return c.MinioAccessKey }
func (c *Config) GetMinIOSecretKey() string     { return c.MinioSecretKey }
func (c *Config) GetMinIOUseSSL() bool          { return c.MinioUseSSL }
func (c *Config) GetMinIOBucketUploads() string { return c.MinioBucketUploads }
func (c *Config) GetMinIOMaxFileSize() int64    { return c.MinioMaxFileSize }

// EmailConfig implementation.

func (c *Config) IsEmailEnabled() bool        { return c.EmailEnabled && c.SMTPHost != "" }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return strings.EqualFold(val, "true")
}

func intEnv(key string, fallback int) int {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	val, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}
