package token

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/agentauth/core/pkg/models"
)

// signForeignIssuer signs a token structurally identical to what Issuer
// produces but with a non-agentauth issuer, to exercise Verify's issuer
// check in isolation from signature validity.
func signForeignIssuer(iss *Issuer, issuerName string) (string, models.TokenClaims, error) {
	now := time.Now().Unix()
	tc := models.TokenClaims{
		Subject:          "ch_x",
		Issuer:           issuerName,
		IssuedAt:         now,
		ExpiresAt:        now + 60,
		JTI:              "00000000000000000000000000000000",
		AgentAuthVersion: models.AgentAuthVersion,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{tc})
	signed, err := tok.SignedString(iss.secret)
	return signed, tc, err
}

func TestSignVerifyRoundTrip(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Hour)
	score := models.AgentCapabilityScore{Reasoning: 0.9, Execution: 0.95, Autonomy: 0.9, Speed: 0.95, Consistency: 0.92}

	signed, tc, err := iss.Sign("ch_abc123", score, "gpt-4-class", 0, []string{"ch_abc123"}, 120*time.Second)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if tc.ExpiresAt-tc.IssuedAt != 120 {
		t.Fatalf("exp - iat = %d, want 120", tc.ExpiresAt-tc.IssuedAt)
	}

	got, err := iss.Verify(signed)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if got.Capabilities != score {
		t.Fatalf("Verify() capabilities = %+v, want %+v", got.Capabilities, score)
	}
	if got.ModelFamily != "gpt-4-class" {
		t.Fatalf("Verify() modelFamily = %s, want gpt-4-class", got.ModelFamily)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Hour)
	// Sign treats ttl <= 0 as "use the default", so an already-expired
	// token is built directly with exp in the past.
	now := time.Now().Unix()
	tc := models.TokenClaims{
		Subject:          "ch_x",
		Issuer:           models.TokenIssuer,
		IssuedAt:         now - 120,
		ExpiresAt:        now - 60,
		JTI:              "00000000000000000000000000000000",
		AgentAuthVersion: models.AgentAuthVersion,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{tc}).SignedString(iss.secret)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	_, err = iss.Verify(signed)
	tErr, ok := err.(*Error)
	if !ok || tErr.Kind != KindExpired {
		t.Fatalf("Verify() error = %v, want Kind=expired", err)
	}
}

func TestVerifyRejectsTamperedSignature(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Hour)
	signed, _, err := iss.Sign("ch_x", models.AgentCapabilityScore{}, "unknown", 0, nil, time.Minute)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	tampered := signed[:len(signed)-1] + "x"
	_, err = iss.Verify(tampered)
	tErr, ok := err.(*Error)
	if !ok || tErr.Kind != KindInvalidSignature {
		t.Fatalf("Verify(tampered) error = %v, want Kind=invalid_signature", err)
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	verifier := NewIssuer([]byte("shared-secret"), time.Hour)
	badSigned, _, err := signForeignIssuer(verifier, "not-agentauth")
	if err != nil {
		t.Fatalf("signForeignIssuer() error = %v", err)
	}
	_, err = verifier.Verify(badSigned)
	tErr, ok := err.(*Error)
	if !ok || tErr.Kind != KindInvalidIssuer {
		t.Fatalf("Verify() error = %v, want Kind=invalid_issuer", err)
	}
}

func TestDecodeUncheckedReadsClaimsWithoutVerifying(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Hour)
	signed, _, err := iss.Sign("ch_x", models.AgentCapabilityScore{}, "unknown", 0, nil, 120*time.Second)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	tc, err := DecodeUnchecked(signed)
	if err != nil {
		t.Fatalf("DecodeUnchecked() error = %v", err)
	}
	if tc.ExpiresAt-tc.IssuedAt != 120 {
		t.Fatalf("DecodeUnchecked() exp - iat = %d, want 120", tc.ExpiresAt-tc.IssuedAt)
	}
}

func TestJTIFormat(t *testing.T) {
	iss := NewIssuer([]byte("test-secret"), time.Hour)
	_, tc, err := iss.Sign("ch_x", models.AgentCapabilityScore{}, "unknown", 0, nil, time.Minute)
	if err != nil {
		t.Fatalf("Sign() error = %v", err)
	}
	if len(tc.JTI) != 32 || strings.Contains(tc.JTI, "-") {
		t.Fatalf("JTI = %s, want 32-hex-char no-dash nonce", tc.JTI)
	}
}
