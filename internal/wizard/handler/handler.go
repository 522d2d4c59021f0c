// Package handler exposes the registration wizard over HTTP. All routes
// require a session token; the account and opportunity come from its claims.
package handler

import (
	"net/http"

	"admission_portal_backend/internal/wizard/service"
	"admission_portal_backend/internal/wizard/transport"
	"admission_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest = "invalid request"
	msgNoOpportunity  = "session has no opportunity"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) sessionScope(c *gin.Context) (accountID, opportunityID string, ok bool) {
	accountID, ok = httpkit.SessionAccountID(c)
	if !ok {
		return "", "", false
	}
	opportunityID, ok = httpkit.SessionOpportunityID(c)
	if !ok {
		httpkit.Error(c, http.StatusForbidden, msgNoOpportunity, nil)
		return "", "", false
	}
	return accountID, opportunityID, true
}

// Status resumes the wizard.
// GET /api/v1/wizard/status
func (h *Handler) Status(c *gin.Context) {
	_, opportunityID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	result, err := h.svc.Status(c.Request.Context(), opportunityID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Bootstrap returns the first step's pick lists.
// GET /api/v1/wizard/options/bootstrap
func (h *Handler) Bootstrap(c *gin.Context) {
	result, err := h.svc.Bootstrap(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Campuses lists campuses.
// GET /api/v1/wizard/options/campuses?term=
func (h *Handler) Campuses(c *gin.Context) {
	result, err := h.svc.Campuses(c.Request.Context(), c.Query("term"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Intakes lists intakes for a campus.
// GET /api/v1/wizard/options/intakes?campusId=
func (h *Handler) Intakes(c *gin.Context) {
	result, err := h.svc.Intakes(c.Request.Context(), c.Query("campusId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Programs lists programs for a campus and intake.
// GET /api/v1/wizard/options/programs?campusId=&intakeId=
func (h *Handler) Programs(c *gin.Context) {
	result, err := h.svc.Programs(c.Request.Context(), c.Query("campusId"), c.Query("intakeId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Pricing returns the booking price for a program.
// GET /api/v1/wizard/options/pricing?intakeId=&studyProgramId=&date=
func (h *Handler) Pricing(c *gin.Context) {
	result, err := h.svc.Pricing(c.Request.Context(), c.Query("intakeId"), c.Query("studyProgramId"), c.Query("date"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Schools searches the master school registry.
// GET /api/v1/wizard/options/schools?term=
func (h *Handler) Schools(c *gin.Context) {
	result, err := h.svc.Schools(c.Request.Context(), c.Query("term"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// SaveSelection records the program choice.
// POST /api/v1/wizard/selection
func (h *Handler) SaveSelection(c *gin.Context) {
	_, opportunityID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req transport.SelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.SaveSelection(c.Request.Context(), opportunityID, req); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"saved": true})
}

// SaveEducation records the school step.
// POST /api/v1/wizard/education
func (h *Handler) SaveEducation(c *gin.Context) {
	accountID, opportunityID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req transport.EducationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	if err := h.svc.SaveEducation(c.Request.Context(), accountID, opportunityID, req); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"saved": true})
}

// Finalize submits the registration.
// POST /api/v1/wizard/finalize
func (h *Handler) Finalize(c *gin.Context) {
	_, opportunityID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	if err := h.svc.Finalize(c.Request.Context(), opportunityID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"submitted": true})
}

// UploadPhoto stores the applicant's photo.
// POST /api/v1/wizard/upload
func (h *Handler) UploadPhoto(c *gin.Context) {
	accountID, opportunityID, ok := h.sessionScope(c)
	if !ok {
		return
	}

	var req transport.UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.UploadPhoto(c.Request.Context(), accountID, opportunityID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
