// Package intake is the bounded context for public web-to-lead capture.
package intake

import (
	apphttp "admission_portal_backend/internal/http"
	"admission_portal_backend/internal/intake/handler"
	"admission_portal_backend/internal/intake/service"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/platform/logger"
)

// Module is the intake bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
}

func NewModule(crm ports.CRM, events service.EventPublisher, log *logger.Logger) *Module {
	return &Module{handler: handler.New(service.New(crm, events, log))}
}

func (m *Module) Name() string { return "intake" }

// RegisterRoutes mounts the public intake route.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/intake/web-to-lead", m.handler.Submit)
}
