package guard

import (
	"testing"
	"time"

	"github.com/agentauth/core/internal/token"
	"github.com/agentauth/core/pkg/models"
)

func sign(t *testing.T, secret []byte, score models.AgentCapabilityScore) string {
	t.Helper()
	iss := token.NewIssuer(secret, time.Hour)
	signed, _, err := iss.Sign("ch_test", score, "claude-3-class", 0.42, []string{"ch_test"}, time.Hour)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	return signed
}

func TestCheckAcceptsSufficientScore(t *testing.T) {
	secret := []byte("guard-secret")
	g := New(Config{Secret: secret, MinScore: 0.7})
	signed := sign(t, secret, models.AgentCapabilityScore{
		Reasoning: 0.9, Execution: 0.9, Autonomy: 0.9, Speed: 0.9, Consistency: 0.9,
	})

	res, rej := g.Check(signed)
	if rej != nil {
		t.Fatalf("Check() rejected: %+v", rej)
	}
	if res.Headers["AgentAuth-Status"] != "verified" {
		t.Errorf("Headers[AgentAuth-Status] = %q, want verified", res.Headers["AgentAuth-Status"])
	}
	if res.Headers["AgentAuth-Model-Family"] != "claude-3-class" {
		t.Errorf("Headers[AgentAuth-Model-Family] = %q, want claude-3-class", res.Headers["AgentAuth-Model-Family"])
	}
	if res.Headers["AgentAuth-Challenge-Id"] != "ch_test" {
		t.Errorf("Headers[AgentAuth-Challenge-Id] = %q, want ch_test", res.Headers["AgentAuth-Challenge-Id"])
	}
	if res.Headers["AgentAuth-PoMI-Confidence"] != "0.42" {
		t.Errorf("Headers[AgentAuth-PoMI-Confidence] = %q, want 0.42", res.Headers["AgentAuth-PoMI-Confidence"])
	}
}

func TestCheckRejectsInsufficientScore(t *testing.T) {
	secret := []byte("guard-secret")
	g := New(Config{Secret: secret, MinScore: 0.8})
	signed := sign(t, secret, models.AgentCapabilityScore{
		Reasoning: 0.5, Execution: 0.5, Autonomy: 0.5, Speed: 0.5, Consistency: 0.5,
	})

	_, rej := g.Check(signed)
	if rej == nil {
		t.Fatalf("Check() succeeded, want insufficient_score rejection")
	}
	if rej.Kind != RejectionInsufficientScore {
		t.Errorf("Rejection.Kind = %q, want insufficient_score", rej.Kind)
	}
}

func TestCheckRejectsInvalidToken(t *testing.T) {
	g := New(Config{Secret: []byte("guard-secret"), MinScore: 0.7})
	_, rej := g.Check("not-a-jwt")
	if rej == nil {
		t.Fatalf("Check() succeeded, want invalid_token rejection")
	}
	if rej.Kind != RejectionInvalidToken {
		t.Errorf("Rejection.Kind = %q, want invalid_token", rej.Kind)
	}
}

func TestCheckRejectsWrongSigningSecret(t *testing.T) {
	signed := sign(t, []byte("other-secret"), models.AgentCapabilityScore{
		Reasoning: 1, Execution: 1, Autonomy: 1, Speed: 1, Consistency: 1,
	})
	g := New(Config{Secret: []byte("guard-secret"), MinScore: 0.7})
	_, rej := g.Check(signed)
	if rej == nil || rej.Kind != RejectionInvalidToken {
		t.Fatalf("Check() = %+v, want invalid_token rejection", rej)
	}
}
