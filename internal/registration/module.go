// Package registration is the bounded context that turns a portal signup
// into a CRM person account and admission opportunity, converting or
// adopting an existing lead when one matches.
package registration

import (
	apphttp "admission_portal_backend/internal/http"
	"admission_portal_backend/internal/registration/domain"
	"admission_portal_backend/internal/registration/handler"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/registration/service"
	"admission_portal_backend/platform/config"
	"admission_portal_backend/platform/logger"
	"admission_portal_backend/platform/validator"

	"github.com/redis/go-redis/v9"
)

// Module is the registration bounded context implementing http.Module.
type Module struct {
	handler     *handler.Handler
	service     *service.Service
	provisioner *service.Provisioner
}

// NewModule wires the registration pipeline. The converter strategy follows
// configuration: the flag-and-poll path drives the org's own automation, the
// native path uses the platform's standard convert action.
func NewModule(
	crm ports.CRM,
	cfg config.SalesforceConfig,
	policy domain.Policy,
	rdb *redis.Client,
	journal ports.Journal,
	reconciler ports.ReconcileScheduler,
	events ports.EventPublisher,
	val *validator.Validator,
	log *logger.Logger,
) *Module {
	clock := ports.RealClock{}
	recordTypes := service.NewRecordTypeResolver(crm, rdb)
	matcher := service.NewLeadMatcher(crm, policy)
	provisioner := service.NewProvisioner(crm, recordTypes, clock, policy, log)

	var converter service.Converter
	if cfg.GetSFNativeConvert() {
		converter = service.NewNativeConverter(crm, cfg.GetSFConvertedStatus(), log)
	} else {
		converter = service.NewFlagConverter(crm, clock, policy, log)
	}

	svc := service.New(matcher, converter, provisioner, crm, policy, journal, reconciler, events, log)

	return &Module{
		handler:     handler.New(svc, val),
		service:     svc,
		provisioner: provisioner,
	}
}

func (m *Module) Name() string { return "registration" }

// Service returns the service layer for other modules and the worker.
func (m *Module) Service() *service.Service { return m.service }

// Provisioner exposes opportunity creation for the auth module.
func (m *Module) Provisioner() *service.Provisioner { return m.provisioner }

// RegisterRoutes mounts registration routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	auth := ctx.V1.Group("/auth")
	auth.Use(ctx.AuthRateLimiter.RateLimit())
	auth.POST("/register", m.handler.Register)
}
