package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agentauth/core/internal/engine"
	"github.com/agentauth/core/internal/metrics"
	"github.com/agentauth/core/internal/token"
	"github.com/agentauth/core/pkg/models"
)

// Handler wires the engine into the §6.1 HTTP surface.
type Handler struct {
	eng *engine.Engine
	log *zap.Logger
}

func newHandler(eng *engine.Engine, log *zap.Logger) *Handler {
	return &Handler{eng: eng, log: log}
}

type initRequest struct {
	Difficulty models.Difficulty            `json:"difficulty"`
	Dimensions []models.ChallengeDimension  `json:"dimensions"`
}

// POST /v1/challenge/init
func (h *Handler) handleInit(c *gin.Context) {
	var req initRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	res, err := h.eng.Init(req.Difficulty, req.Dimensions)
	if err != nil {
		h.log.Error("challenge init failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initialize challenge"})
		return
	}

	metrics.ChallengesInitialized.WithLabelValues(string(req.Difficulty)).Inc()

	c.JSON(http.StatusCreated, gin.H{
		"id":            res.ID,
		"session_token": res.SessionToken,
		"expires_at":    res.ExpiresAt,
		"ttl_seconds":   res.TTLSeconds,
		"time_estimate_ms": gin.H{
			"human": res.HumanTimeMs,
			"ai":    res.AITimeMs,
		},
	})
}

// GET /v1/challenge/{id}
func (h *Handler) handleFetch(c *gin.Context) {
	id := c.Param("id")
	sessionToken, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
		return
	}

	res, found, err := h.eng.Fetch(id, sessionToken)
	if err != nil {
		h.log.Error("challenge fetch failed", zap.Error(err), zap.String("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch challenge"})
		return
	}
	if !found {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "challenge not found or token mismatch"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":         res.ID,
		"payload":    res.Payload,
		"difficulty": res.Difficulty,
		"dimensions": res.Dimensions,
		"created_at": res.CreatedAt,
		"expires_at": res.ExpiresAt,
	})
}

type solveRequest struct {
	Answer          string                    `json:"answer"`
	HMAC            string                    `json:"hmac"`
	CanaryResponses map[string]string         `json:"canary_responses"`
	Metadata        *models.SolveMetadata     `json:"metadata"`
	ClientRTTMs     int64                     `json:"client_rtt_ms"`
	StepTimings     []int64                   `json:"step_timings"`
}

// POST /v1/challenge/{id}/solve
func (h *Handler) handleSolve(c *gin.Context) {
	id := c.Param("id")
	var req solveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	start := time.Now()
	result, err := h.eng.Solve(id, models.SolveInput{
		Answer:          req.Answer,
		HMAC:            req.HMAC,
		CanaryResponses: req.CanaryResponses,
		Metadata:        req.Metadata,
		ClientRTTMs:     req.ClientRTTMs,
		StepTimings:     req.StepTimings,
	})
	metrics.SolveLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		h.log.Error("challenge solve failed", zap.Error(err), zap.String("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to evaluate solve"})
		return
	}

	outcome := "success"
	zone := ""
	if !result.Success {
		outcome = string(result.Reason)
	}
	if result.TimingAnalysis != nil {
		zone = string(result.TimingAnalysis.Zone)
	}
	metrics.SolveOutcomes.WithLabelValues(outcome).Inc()
	if zone != "" {
		metrics.TimingZones.WithLabelValues(zone).Inc()
	}
	family := "unknown"
	if result.ModelIdentity != nil {
		family = result.ModelIdentity.Family
		metrics.ClassifierConfidence.Observe(result.ModelIdentity.Confidence)
	}
	metrics.ModelFamilyIdentifications.WithLabelValues(family).Inc()

	c.JSON(http.StatusOK, gin.H{
		"success":           result.Success,
		"score":             result.Score,
		"token":             result.Token,
		"reason":            result.Reason,
		"model_identity":    result.ModelIdentity,
		"timing_analysis":   result.TimingAnalysis,
		"pattern_analysis":  result.PatternAnalysis,
		"session_anomalies": result.SessionAnomalies,
	})
}

// GET /v1/token/verify
func (h *Handler) handleVerifyToken(c *gin.Context) {
	signed, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
		return
	}

	claims, err := h.eng.VerifyToken(signed)
	if err != nil {
		var terr *token.Error
		reason := "invalid"
		if errors.As(err, &terr) {
			reason = string(terr.Kind)
		}
		c.JSON(http.StatusOK, gin.H{"valid": false, "reason": reason})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":        true,
		"capabilities": claims.Capabilities,
		"model_family": claims.ModelFamily,
		"issued_at":    claims.IssuedAt,
		"expires_at":   claims.ExpiresAt,
	})
}

// handleHealth reports liveness for service discovery.
func (h *Handler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "operational",
		"service": "agentauth",
	})
}

func bearerToken(c *gin.Context) (string, bool) {
	auth := c.GetHeader("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
