// Package challenge implements the four challenge drivers (§4.4) and
// the registry that selects among them (§4.5). Each driver is a small
// interface — name, dimensions, generate, verify — matching the
// teacher's preference for narrow capability interfaces over deep
// inheritance ("driver polymorphism" design note).
package challenge

import (
	"time"

	"github.com/agentauth/core/internal/cryptoutil"
	"github.com/agentauth/core/pkg/models"
)

// Driver is the contract every challenge generator/verifier satisfies.
// No driver keeps mutable state between calls; all configuration flows
// through Generate's difficulty argument.
type Driver interface {
	Name() string
	Dimensions() []models.ChallengeDimension
	// TimeEstimate reports the driver's nominal human/AI completion time
	// for a difficulty tier (§4.4), surfaced to callers alongside the
	// generated payload.
	TimeEstimate(difficulty models.Difficulty) TimeEstimate
	// Generate produces a payload and the answer hash it commits to:
	// SHA256hex of the correct answer string. For crypto-nl,
	// ambiguous-logic and multi-step that string is itself a SHA-256 hex
	// digest (invariant I1); code-execution hashes its output string once.
	Generate(difficulty models.Difficulty) (models.ChallengePayload, string)
	// Verify recomputes SHA256hex(submitted) and compares it to
	// answerHash in constant time.
	Verify(answerHash, submitted string) bool
}

// VerifyBySHA256Hex is the shared verify algorithm every driver uses:
// the submitted string is hashed once with SHA-256 and compared to the
// stored answer hash, regardless of how the driver derived it (§4.4).
func VerifyBySHA256Hex(answerHash, submitted string) bool {
	candidate := cryptoutil.SHA256Hex([]byte(submitted))
	return cryptoutil.ConstantTimeEqual(candidate, answerHash)
}

// TimeEstimate is a driver's nominal human/AI completion time, used
// only for documentation/telemetry purposes — the timing analyzer reads
// calibrated baselines (models.DefaultBaselines-equivalent lookups),
// not these estimates directly.
type TimeEstimate struct {
	HumanMs time.Duration
	AIMs    time.Duration
}

// defaultTimeEstimate scales nominal completion times by difficulty
// tier, shared by every driver — the estimate is independent of which
// driver generated the challenge.
func defaultTimeEstimate(difficulty models.Difficulty) TimeEstimate {
	switch difficulty {
	case models.DifficultyEasy:
		return TimeEstimate{HumanMs: 8 * time.Second, AIMs: 800 * time.Millisecond}
	case models.DifficultyMedium:
		return TimeEstimate{HumanMs: 20 * time.Second, AIMs: 1500 * time.Millisecond}
	case models.DifficultyHard:
		return TimeEstimate{HumanMs: 45 * time.Second, AIMs: 2500 * time.Millisecond}
	case models.DifficultyAdversarial:
		return TimeEstimate{HumanMs: 90 * time.Second, AIMs: 4000 * time.Millisecond}
	default:
		return TimeEstimate{HumanMs: 20 * time.Second, AIMs: 1500 * time.Millisecond}
	}
}
