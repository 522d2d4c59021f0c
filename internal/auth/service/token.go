package service

import (
	"time"

	"admission_portal_backend/platform/apperr"
	"admission_portal_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
)

// IssueSessionToken mints the wizard session JWT. The subject is the
// account; the opportunity travels in a dedicated claim so the wizard can
// scope its writes.
func IssueSessionToken(cfg config.JWTConfig, accountID, opportunityID string, now time.Time) (string, error) {
	claims := jwt.MapClaims{
		"sub":  accountID,
		"opp":  opportunityID,
		"type": "session",
		"iat":  now.Unix(),
		"exp":  now.Add(cfg.GetSessionTokenTTL()).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.GetJWTSecret()))
	if err != nil {
		return "", apperr.Internal("session token signing failed")
	}
	return signed, nil
}
