// Package http provides HTTP server infrastructure including the Module
// interface that all domain modules implement for route registration.
package http

import (
	"admission_portal_backend/platform/config"
	"admission_portal_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the provided router
	// context.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext provides shared dependencies for module route registration,
// so modules do not each take a pile of constructor parameters.
type RouterContext struct {
	// Engine is the root Gin engine for modules that need engine-level access.
	Engine *gin.Engine
	// V1 is the public /api/v1 route group.
	V1 *gin.RouterGroup
	// Session is the route group requiring a wizard session token.
	Session *gin.RouterGroup
	// Config is the JWT configuration for session middleware.
	Config config.JWTConfig
	// AuthRateLimiter is the stricter limiter applied to credential routes.
	AuthRateLimiter *httpkit.IPRateLimiter
}
