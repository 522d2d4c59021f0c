// Package handler exposes the public interest form over HTTP.
package handler

import (
	"net/http"

	"admission_portal_backend/internal/intake/service"
	"admission_portal_backend/internal/intake/transport"
	"admission_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

const msgInvalidRequest = "invalid request"

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

// Submit accepts a public interest form submission.
// POST /api/v1/intake/web-to-lead
func (h *Handler) Submit(c *gin.Context) {
	var req transport.WebToLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	result, err := h.svc.Submit(c.Request.Context(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, result)
}
