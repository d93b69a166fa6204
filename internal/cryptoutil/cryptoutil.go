// Package cryptoutil implements AgentAuth's raw primitives: hex-encoded
// SHA-256, HMAC-SHA256 binding, constant-time comparison, and the
// id/token generators used across the engine.
//
// The spec names these primitives directly (double SHA-256 hex over the
// answer, HMAC-SHA256 binding, crypto/rand-backed ids) rather than a
// higher-level crypto scheme, so this package stays on the standard
// library by design — there is no third-party library in the pack that
// does raw digest/HMAC work any more idiomatically than crypto/* does.
package cryptoutil

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// SHA256Hex returns the lowercase hex encoding of SHA-256(data).
func SHA256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DoubleSHA256Hex implements invariant I1: SHA256hex(SHA256hex(data)).
// The inner digest is hex-encoded before being hashed again, matching
// the answer hash that crypto-nl, ambiguous-logic and multi-step commit
// to (code-execution hashes its output string once).
func DoubleSHA256Hex(data []byte) string {
	inner := SHA256Hex(data)
	return SHA256Hex([]byte(inner))
}

// HMACHex returns the lowercase hex HMAC-SHA256 of message under key.
func HMACHex(key, message []byte) string {
	mac := hmac.New(sha256.New, key)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyHMACHex checks candidateHex against HMACHex(key, message) in
// constant time. Both sides are decoded from hex first so comparison
// length never leaks the ASCII digest itself.
func VerifyHMACHex(key, message []byte, candidateHex string) bool {
	want, err := hex.DecodeString(HMACHex(key, message))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(candidateHex)
	if err != nil {
		return false
	}
	if len(want) != len(got) {
		return false
	}
	return subtle.ConstantTimeCompare(want, got) == 1
}

// ConstantTimeEqual compares two strings in constant time without
// requiring either to be hex — used for the session-token check in
// engine.Fetch and the answer-hash check in challenge.VerifyBySHA256Hex.
func ConstantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// randomHex returns n random bytes hex-encoded, sourced from
// crypto/rand. Panics only if the system CSPRNG is unavailable, which
// the standard library itself treats as unrecoverable.
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("cryptoutil: crypto/rand unavailable: %v", err))
	}
	return hex.EncodeToString(buf)
}

// GenerateChallengeID returns a fresh "ch_"-prefixed 32-hex-char id.
func GenerateChallengeID() string {
	return "ch_" + randomHex(16)
}

// GenerateSessionToken returns a fresh "st_"-prefixed 48-hex-char
// opaque session token, distinct from the JWT issued after solve.
func GenerateSessionToken() string {
	return "st_" + randomHex(24)
}
