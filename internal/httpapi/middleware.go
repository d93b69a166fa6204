package httpapi

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentauth/core/internal/guard"
	"github.com/agentauth/core/internal/metrics"
)

// corsMiddleware mirrors the teacher's origin allowlist, read from
// ALLOWED_ORIGINS at router setup time: a comma-separated list, empty
// or "*" meaning unrestricted.
func corsMiddleware(allowedOrigins string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// corsOriginsFromEnv reads ALLOWED_ORIGINS the way the teacher does.
func corsOriginsFromEnv() string {
	return os.Getenv("ALLOWED_ORIGINS")
}

// guardMiddleware runs g.Check against the request's bearer token and
// stores the result in gin.Context for handlers to read back, or
// aborts with 401/403 per the rejection kind (§4.12, §6.1).
func guardMiddleware(g *guard.Guard, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		parts := strings.SplitN(auth, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			metrics.GuardRejections.WithLabelValues("missing_header").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or malformed Authorization header"})
			c.Abort()
			return
		}

		res, rej := g.Check(parts[1])
		if rej != nil {
			status := http.StatusUnauthorized
			if rej.Kind == guard.RejectionInsufficientScore {
				status = http.StatusForbidden
			}
			metrics.GuardRejections.WithLabelValues(string(rej.Kind)).Inc()
			log.Debug("guard rejected request", zap.String("path", c.Request.URL.Path), zap.String("kind", string(rej.Kind)))
			c.JSON(status, gin.H{"error": rej.Error(), "reason": string(rej.Kind)})
			c.Abort()
			return
		}

		for k, v := range res.Headers {
			c.Header(k, v)
		}
		c.Set("agentauth.claims", res.Claims)
		c.Next()
	}
}
