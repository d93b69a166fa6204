package models

// AgentCapabilityScore is the five-dimension profile folded into every
// issued token's claims, each component on a 0..1 scale.
type AgentCapabilityScore struct {
	Reasoning   float64 `json:"reasoning"`
	Execution   float64 `json:"execution"`
	Autonomy    float64 `json:"autonomy"`
	Speed       float64 `json:"speed"`
	Consistency float64 `json:"consistency"`
}

// Overall is the unweighted mean of the five dimensions, used as the
// single number guard.MinScore compares against.
func (s AgentCapabilityScore) Overall() float64 {
	return (s.Reasoning + s.Execution + s.Autonomy + s.Speed + s.Consistency) / 5
}

// TokenClaims is the payload signed into the issued JWT (§6.4). It
// embeds the capability score so a downstream verifier never needs to
// recontact the issuer to read it back.
type TokenClaims struct {
	Subject          string               `json:"sub"`
	Issuer           string               `json:"iss"`
	IssuedAt         int64                `json:"iat"`
	ExpiresAt        int64                `json:"exp"`
	JTI              string               `json:"jti"`
	Capabilities     AgentCapabilityScore `json:"capabilities"`
	ModelFamily      string               `json:"model_family,omitempty"`
	PoMIConfidence   float64              `json:"pomi_confidence,omitempty"`
	ChallengeIDs     []string             `json:"challenge_ids,omitempty"`
	AgentAuthVersion string               `json:"agentauth_version"`
}

// TokenIssuer is the fixed issuer claim every token is signed and
// verified against.
const TokenIssuer = "agentauth"

// AgentAuthVersion is the fixed version tag stamped into every token.
const AgentAuthVersion = "1"
