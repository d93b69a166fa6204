// Package token issues and verifies the HS256 JWT that AgentAuth hands
// back on a successful solve (§4.2, §6.4). It wraps
// github.com/golang-jwt/jwt/v5 — the wire format the spec describes
// literally is a JWT, so this package is the thing itself, not an
// adaptation of some other signing scheme.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/agentauth/core/pkg/models"
)

// Kind distinguishes the verifier's rejection reasons so callers (the
// guard, /v1/token/verify) can report a specific cause instead of a
// single opaque "invalid token".
type Kind string

const (
	KindExpired          Kind = "expired"
	KindInvalidIssuer    Kind = "invalid_issuer"
	KindInvalidSignature Kind = "invalid_signature"
	KindMalformed        Kind = "malformed"
)

// Error wraps a verification failure with its Kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("token: %s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// claims is the jwt.Claims adapter over models.TokenClaims.
type claims struct {
	models.TokenClaims
}

func (c claims) GetExpirationTime() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.ExpiresAt, 0)), nil
}
func (c claims) GetIssuedAt() (*jwt.NumericDate, error) {
	return jwt.NewNumericDate(time.Unix(c.IssuedAt, 0)), nil
}
func (c claims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c claims) GetIssuer() (string, error)              { return c.Issuer, nil }
func (c claims) GetSubject() (string, error)              { return c.Subject, nil }
func (c claims) GetAudience() (jwt.ClaimStrings, error)   { return nil, nil }

// Issuer signs and verifies AgentAuth tokens under a single HMAC secret.
type Issuer struct {
	secret   []byte
	tokenTTL time.Duration
}

// NewIssuer builds an Issuer. tokenTTL is the default lifetime applied
// by Sign when ttl <= 0 is passed.
func NewIssuer(secret []byte, tokenTTL time.Duration) *Issuer {
	if tokenTTL <= 0 {
		tokenTTL = 3600 * time.Second
	}
	return &Issuer{secret: secret, tokenTTL: tokenTTL}
}

// Sign issues an HS256 JWT binding sub, the capability score, the
// classified model family, and the challenge ids that produced it. jti
// is a fresh UUIDv4 with dashes stripped, giving a 32-hex nonce.
func (iss *Issuer) Sign(sub string, score models.AgentCapabilityScore, modelFamily string, pomiConfidence float64, challengeIDs []string, ttl time.Duration) (string, models.TokenClaims, error) {
	if ttl <= 0 {
		ttl = iss.tokenTTL
	}
	now := time.Now().Unix()
	tc := models.TokenClaims{
		Subject:          sub,
		Issuer:           models.TokenIssuer,
		IssuedAt:         now,
		ExpiresAt:        now + int64(ttl.Seconds()),
		JTI:              strings.ReplaceAll(uuid.New().String(), "-", ""),
		Capabilities:     score,
		ModelFamily:      modelFamily,
		PoMIConfidence:   pomiConfidence,
		ChallengeIDs:     challengeIDs,
		AgentAuthVersion: models.AgentAuthVersion,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{tc})
	signed, err := tok.SignedString(iss.secret)
	if err != nil {
		return "", models.TokenClaims{}, fmt.Errorf("token: sign: %w", err)
	}
	return signed, tc, nil
}

// Verify parses and validates a signed token, rejecting expired tokens,
// tokens with a wrong issuer, and invalid signatures as distinct Kinds.
func (iss *Issuer) Verify(signed string) (models.TokenClaims, error) {
	var tc claims
	parsed, err := jwt.ParseWithClaims(signed, &tc, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return iss.secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return models.TokenClaims{}, &Error{Kind: KindExpired, Err: err}
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return models.TokenClaims{}, &Error{Kind: KindInvalidSignature, Err: err}
		case errors.Is(err, jwt.ErrTokenMalformed):
			return models.TokenClaims{}, &Error{Kind: KindMalformed, Err: err}
		default:
			return models.TokenClaims{}, &Error{Kind: KindMalformed, Err: err}
		}
	}
	if !parsed.Valid {
		return models.TokenClaims{}, &Error{Kind: KindMalformed, Err: errors.New("token not valid")}
	}
	if tc.Issuer != models.TokenIssuer {
		return models.TokenClaims{}, &Error{Kind: KindInvalidIssuer, Err: fmt.Errorf("issuer %q != %q", tc.Issuer, models.TokenIssuer)}
	}
	return tc.TokenClaims, nil
}

// DecodeUnchecked parses claims out of a token without verifying its
// signature or expiry — introspection only, never an authorization
// decision.
func DecodeUnchecked(signed string) (models.TokenClaims, error) {
	var tc claims
	p := jwt.NewParser()
	_, _, err := p.ParseUnverified(signed, &tc)
	if err != nil {
		return models.TokenClaims{}, &Error{Kind: KindMalformed, Err: err}
	}
	return tc.TokenClaims, nil
}
