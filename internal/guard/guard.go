// Package guard implements the boundary policy used by transport code
// to admit or reject a request based on token validity and minimum
// capability score (§4.12). It is stateless aside from the token
// issuer/verifier and config it closes over.
package guard

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentauth/core/internal/token"
	"github.com/agentauth/core/pkg/models"
)

// Config is the guard's own configuration (§6.7): a secret and a
// minimum average capability score.
type Config struct {
	Secret   []byte
	MinScore float64
}

// Guard verifies bearer tokens and enforces MinScore.
type Guard struct {
	cfg    Config
	issuer *token.Issuer
}

// New builds a Guard over cfg.
func New(cfg Config) *Guard {
	return &Guard{cfg: cfg, issuer: token.NewIssuer(cfg.Secret, time.Hour)}
}

// Result is what a successful Check returns: the verified claims plus
// the response headers a downstream handler should attach (§6.2).
type Result struct {
	Claims  models.TokenClaims
	Headers map[string]string
}

// RejectionKind distinguishes why Check failed, so the HTTP layer can
// map it to the right status code (401 vs 403).
type RejectionKind string

const (
	RejectionInvalidToken      RejectionKind = "invalid_token"
	RejectionInsufficientScore RejectionKind = "insufficient_score"
)

// Rejection carries the reason Check failed.
type Rejection struct {
	Kind RejectionKind
	Err  error
}

func (r *Rejection) Error() string { return r.Err.Error() }

// Check verifies bearerToken (without the "Bearer " prefix) and, if
// valid, enforces the configured minimum average capability score.
func (g *Guard) Check(bearerToken string) (Result, *Rejection) {
	claims, err := g.issuer.Verify(bearerToken)
	if err != nil {
		return Result{}, &Rejection{Kind: RejectionInvalidToken, Err: err}
	}

	avg := claims.Capabilities.Overall()
	if avg < g.cfg.MinScore {
		return Result{}, &Rejection{
			Kind: RejectionInsufficientScore,
			Err:  fmt.Errorf("guard: score %.3f below minimum %.3f", avg, g.cfg.MinScore),
		}
	}

	challengeID := ""
	if len(claims.ChallengeIDs) > 0 {
		challengeID = claims.ChallengeIDs[0]
	}

	headers := map[string]string{
		"AgentAuth-Status":            "verified",
		"AgentAuth-Score":             fmt.Sprintf("%.2f", avg),
		"AgentAuth-Model-Family":      claims.ModelFamily,
		"AgentAuth-PoMI-Confidence":   fmt.Sprintf("%.2f", claims.PoMIConfidence),
		"AgentAuth-Version":           claims.AgentAuthVersion,
		"AgentAuth-Challenge-Id":      challengeID,
		"AgentAuth-Token-Expires":     fmt.Sprintf("%d", claims.ExpiresAt),
		"AgentAuth-Capabilities":      capabilitiesHeader(claims.Capabilities),
	}

	return Result{Claims: claims, Headers: headers}, nil
}

func capabilitiesHeader(s models.AgentCapabilityScore) string {
	parts := []string{
		fmt.Sprintf("reasoning=%.2f", s.Reasoning),
		fmt.Sprintf("execution=%.2f", s.Execution),
		fmt.Sprintf("autonomy=%.2f", s.Autonomy),
		fmt.Sprintf("speed=%.2f", s.Speed),
		fmt.Sprintf("consistency=%.2f", s.Consistency),
	}
	return strings.Join(parts, ",")
}
