// Package auth is the bounded context for portal logins. Credentials are
// verified against the CRM person account, and every successful login opens
// a fresh opportunity for the wizard session.
package auth

import (
	"admission_portal_backend/internal/auth/handler"
	"admission_portal_backend/internal/auth/service"
	apphttp "admission_portal_backend/internal/http"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/platform/config"
	"admission_portal_backend/platform/logger"
)

// Module is the auth bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

func NewModule(crm ports.CRM, opps service.OpportunityOpener, cfg config.JWTConfig, log *logger.Logger) *Module {
	svc := service.New(crm, opps, ports.RealClock{}, cfg, log)
	return &Module{
		handler: handler.New(svc),
		service: svc,
	}
}

func (m *Module) Name() string { return "auth" }

// RegisterRoutes mounts login under the stricter auth rate limit.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	auth := ctx.V1.Group("/auth")
	auth.Use(ctx.AuthRateLimiter.RateLimit())
	auth.POST("/login", m.handler.Login)
}
