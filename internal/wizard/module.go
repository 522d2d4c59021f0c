// Package wizard is the bounded context for the step-by-step registration
// flow a logged-in applicant completes: program choice, education history,
// document upload, and final submission.
package wizard

import (
	apphttp "admission_portal_backend/internal/http"
	"admission_portal_backend/internal/registration/ports"
	"admission_portal_backend/internal/wizard/handler"
	"admission_portal_backend/internal/wizard/service"
	"admission_portal_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Module is the wizard bounded context implementing http.Module.
type Module struct {
	handler *handler.Handler
}

func NewModule(crm ports.CRM, rdb *redis.Client, archiver service.Archiver, log *logger.Logger) *Module {
	svc := service.New(crm, rdb, archiver, ports.RealClock{}, log)
	return &Module{handler: handler.New(svc)}
}

func (m *Module) Name() string { return "wizard" }

// RegisterRoutes mounts all wizard routes behind the session middleware.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	w := ctx.Session.Group("/wizard")
	w.GET("/status", m.handler.Status)
	w.GET("/options/bootstrap", m.handler.Bootstrap)
	w.GET("/options/campuses", m.handler.Campuses)
	w.GET("/options/intakes", m.handler.Intakes)
	w.GET("/options/programs", m.handler.Programs)
	w.GET("/options/pricing", m.handler.Pricing)
	w.GET("/options/schools", m.handler.Schools)
	w.POST("/selection", m.handler.SaveSelection)
	w.POST("/education", m.handler.SaveEducation)
	w.POST("/finalize", m.handler.Finalize)
	w.POST("/upload", m.handler.UploadPhoto)
}
