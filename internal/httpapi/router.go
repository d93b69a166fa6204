// Package httpapi is the reference HTTP adapter over the engine,
// grounded on the teacher's internal/api: a gin.Engine built by
// SetupRouter, the same public/protected route-group split, and its
// own CORS + rate-limiter middleware — adapted here to gate AgentAuth's
// challenge lifecycle instead of forensics endpoints, and with a
// sample route demonstrating internal/guard for downstream services
// that want to gate their own resources behind an AgentAuth token.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentauth/core/internal/engine"
	"github.com/agentauth/core/internal/guard"
)

// SetupRouter builds the gin.Engine serving the §6.1 HTTP surface.
func SetupRouter(eng *engine.Engine, g *guard.Guard, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(ginzapRecovery(log))
	r.Use(corsMiddleware(corsOriginsFromEnv()))

	h := newHandler(eng, log)
	limiter := NewRateLimiter(60, 10, log)

	v1 := r.Group("/v1")
	{
		v1.GET("/health", h.handleHealth)
		v1.POST("/challenge/init", limiter.Middleware(), h.handleInit)
		v1.GET("/challenge/:id", h.handleFetch)
		v1.POST("/challenge/:id/solve", limiter.Middleware(), h.handleSolve)
		v1.GET("/token/verify", h.handleVerifyToken)

		// Sample downstream-resource route gated by Guard, to exercise
		// §4.12 the way an AgentAuth-protected service would.
		protected := v1.Group("/protected")
		protected.Use(guardMiddleware(g, log))
		{
			protected.GET("/ping", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"status": "ok"})
			})
		}
	}

	return r
}

// ginzapRecovery logs panics via zap and recovers, replacing the
// teacher's gin.Default() (which wires gin's own stdlib-logging
// middleware) with structured logging consistent with the rest of the
// service.
func ginzapRecovery(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Error("panic recovered", zap.Any("panic", rec), zap.String("path", c.Request.URL.Path))
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}
