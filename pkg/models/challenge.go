// Package models holds the data structures shared across AgentAuth's
// internal packages: challenge payloads and records, canary evidence,
// timing results, and the capability score embedded in every issued
// token.
//
// Mirrors the teacher's pkg/models layout: one flat package of plain
// structs that every internal package imports, instead of each package
// defining its own half-duplicated view of the same data.
package models

// Difficulty governs data size, step count, bug count, and canary pool
// across every challenge driver.
type Difficulty string

const (
	DifficultyEasy        Difficulty = "easy"
	DifficultyMedium      Difficulty = "medium"
	DifficultyHard        Difficulty = "hard"
	DifficultyAdversarial  Difficulty = "adversarial"
)

// Valid reports whether d is one of the four recognized difficulty tiers.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyAdversarial:
		return true
	}
	return false
}

// ChallengeDimension tags a driver with the kind of competence it
// exercises. Selection picks drivers whose tag sets maximally cover a
// requester's dimension list.
type ChallengeDimension string

const (
	DimensionReasoning ChallengeDimension = "reasoning"
	DimensionExecution ChallengeDimension = "execution"
	DimensionMemory    ChallengeDimension = "memory"
	DimensionAmbiguity ChallengeDimension = "ambiguity"
)

// ChallengePayload is the solver-facing half of a generated challenge.
// Context carries private generator state (expected intermediates, bug
// lists, canary ids) and must never cross the wire — PublicPayload
// strips it before the payload is returned to a caller.
type ChallengePayload struct {
	Type         string                 `json:"type"`
	Instructions string                 `json:"instructions"`
	Data         string                 `json:"data"` // base64 of raw bytes
	Steps        []string               `json:"steps,omitempty"`
	Context      map[string]interface{} `json:"context,omitempty"`
}

// PublicPayload returns a copy of the payload with Context cleared, safe
// to hand back to a solver from fetch.
func (p ChallengePayload) PublicPayload() ChallengePayload {
	p.Context = nil
	return p
}

// ChallengeRecord is the internally stored state for one in-flight
// challenge. It is created by init, read by fetch, and deleted on the
// first solve attempt once HMAC binding passes — single-use regardless
// of the eventual correctness verdict.
type ChallengeRecord struct {
	Payload           ChallengePayload      `json:"payload"`
	ID                string                `json:"id"`
	SessionToken      string                `json:"sessionToken"`
	Difficulty        Difficulty            `json:"difficulty"`
	Dimensions        []ChallengeDimension  `json:"dimensions"`
	AnswerHash        string                `json:"answerHash"`
	CreatedAtSeconds  int64                 `json:"createdAtSeconds"`
	CreatedAtServerMs int64                 `json:"createdAtServerMs"`
	Attempts          int                   `json:"attempts"`
	MaxAttempts       int                   `json:"maxAttempts"`
	InjectedCanaries  []Canary              `json:"injectedCanaries,omitempty"`
}

// SolveMetadata carries caller-asserted identity hints. It is never
// trusted on its own — it's a fallback when PoMI classification is
// inconclusive, and an input to the session tracker's keying.
type SolveMetadata struct {
	Model     string `json:"model,omitempty"`
	Framework string `json:"framework,omitempty"`
}

// SolveInput is the body of a solve request (§4.11).
type SolveInput struct {
	Answer          string            `json:"answer"`
	HMAC            string            `json:"hmac"`
	CanaryResponses map[string]string `json:"canaryResponses,omitempty"`
	Metadata        *SolveMetadata    `json:"metadata,omitempty"`
	ClientRTTMs     int64             `json:"clientRttMs,omitempty"`
	StepTimings     []int64           `json:"stepTimings,omitempty"`
}

// FailReason enumerates the snake_case outcomes a solve can report
// without ever propagating an error to the caller (§6.3).
type FailReason string

const (
	ReasonWrongAnswer FailReason = "wrong_answer"
	ReasonExpired     FailReason = "expired"
	ReasonAlreadyUsed FailReason = "already_used"
	ReasonInvalidHMAC FailReason = "invalid_hmac"
	ReasonTooFast     FailReason = "too_fast"
	ReasonTooSlow     FailReason = "too_slow"
	ReasonTimeout     FailReason = "timeout"
	ReasonRateLimited FailReason = "rate_limited"
)

// VerifyResult is solve's structured, never-throws verdict.
type VerifyResult struct {
	Success          bool                   `json:"success"`
	Score            AgentCapabilityScore   `json:"score"`
	Token            string                 `json:"token,omitempty"`
	Reason           FailReason             `json:"reason,omitempty"`
	ModelIdentity    *ModelIdentification   `json:"modelIdentity,omitempty"`
	TimingAnalysis   *TimingAnalysis        `json:"timingAnalysis,omitempty"`
	PatternAnalysis  *TimingPatternAnalysis `json:"patternAnalysis,omitempty"`
	SessionAnomalies []SessionTimingAnomaly `json:"sessionAnomalies,omitempty"`
}
