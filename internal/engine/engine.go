// Package engine orchestrates the challenge lifecycle state machine
// (§4.11): init creates a challenge, fetch reads it back, solve
// consumes it exactly once and returns a structured, never-throwing
// verdict.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/agentauth/core/internal/canary"
	"github.com/agentauth/core/internal/challenge"
	"github.com/agentauth/core/internal/cryptoutil"
	"github.com/agentauth/core/internal/session"
	"github.com/agentauth/core/internal/store"
	"github.com/agentauth/core/internal/timing"
	"github.com/agentauth/core/internal/token"
	"github.com/agentauth/core/pkg/models"
)

// Engine ties the registry, canary subsystem, timing analyzer, session
// tracker, store, and token issuer into the four operations named in
// §4.11. All fields are either immutable after construction or
// independently thread-safe, so an *Engine may be shared across
// workers (§5).
type Engine struct {
	cfg       Config
	store     store.ChallengeStore
	registry  *challenge.Registry
	catalog   *canary.Catalog
	injector  *canary.Injector
	classifier *canary.Classifier
	analyzer  *timing.Analyzer
	tracker   *session.Tracker
	issuer    *token.Issuer
	log       *zap.Logger
}

// SetLogger attaches a structured logger for boundary events (store
// errors, solve verdicts). Engines default to a no-op logger, so this
// is optional.
func (e *Engine) SetLogger(log *zap.Logger) {
	if log != nil {
		e.log = log
	}
}

// New builds an Engine from cfg and a backing store. Pass nil for st to
// use the in-memory reference store.
func New(cfg Config, st store.ChallengeStore) *Engine {
	if st == nil {
		st = store.NewMemoryStore()
	}
	families := cfg.PoMI.ModelFamilies
	if len(families) == 0 {
		families = canary.DefaultFamilies
	}
	cat := canary.NewCatalog()
	return &Engine{
		cfg:        cfg,
		store:      st,
		registry:   challenge.NewRegistry(),
		catalog:    cat,
		injector:   canary.NewInjector(cat),
		classifier: canary.NewClassifier(families, cfg.PoMI.ConfidenceThreshold),
		analyzer:   timing.NewAnalyzer(cfg.Timing.Baselines),
		tracker:    session.NewTracker(),
		issuer:     token.NewIssuer(cfg.Secret, cfg.TokenTTL),
		log:        zap.NewNop(),
	}
}

// InitResult is init's return value.
type InitResult struct {
	ID           string
	SessionToken string
	ExpiresAt    int64
	TTLSeconds   int64
	HumanTimeMs  int64
	AITimeMs     int64
}

// Init creates a new challenge. difficulty defaults to medium when
// empty; dimensions, when non-empty, bias driver selection.
func (e *Engine) Init(difficulty models.Difficulty, dimensions []models.ChallengeDimension) (InitResult, error) {
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}
	drivers := e.registry.Select(dimensions, 1)
	if len(drivers) == 0 {
		return InitResult{}, fmt.Errorf("engine: no drivers registered")
	}
	driver := drivers[0]

	estimate := driver.TimeEstimate(difficulty)
	payload, answerHash := driver.Generate(difficulty)

	var injected []models.Canary
	if e.cfg.PoMI.Enabled {
		payload, injected = e.injector.Inject(payload, e.cfg.PoMI.CanariesPerChallenge)
	}

	now := time.Now()
	id := cryptoutil.GenerateChallengeID()
	sessionToken := cryptoutil.GenerateSessionToken()

	rec := models.ChallengeRecord{
		Payload:           payload,
		ID:                id,
		SessionToken:      sessionToken,
		Difficulty:        difficulty,
		Dimensions:        driver.Dimensions(),
		AnswerHash:        answerHash,
		CreatedAtSeconds:  now.Unix(),
		CreatedAtServerMs: now.UnixMilli(),
		Attempts:          0,
		MaxAttempts:       3,
		InjectedCanaries:  injected,
	}

	if err := e.store.Set(id, rec, e.cfg.ChallengeTTL); err != nil {
		return InitResult{}, fmt.Errorf("engine: store challenge: %w", err)
	}

	return InitResult{
		ID:           id,
		SessionToken: sessionToken,
		ExpiresAt:    now.Add(e.cfg.ChallengeTTL).Unix(),
		TTLSeconds:   int64(e.cfg.ChallengeTTL.Seconds()),
		HumanTimeMs:  estimate.HumanMs.Milliseconds(),
		AITimeMs:     estimate.AIMs.Milliseconds(),
	}, nil
}

// FetchResult is fetch's return value.
type FetchResult struct {
	ID         string
	Payload    models.ChallengePayload
	Difficulty models.Difficulty
	Dimensions []models.ChallengeDimension
	CreatedAt  int64
	ExpiresAt  int64
}

// Fetch reads back a challenge's public payload, gated by a
// constant-time session token comparison.
func (e *Engine) Fetch(id, sessionToken string) (FetchResult, bool, error) {
	rec, ok, err := e.store.Get(id)
	if err != nil {
		return FetchResult{}, false, fmt.Errorf("engine: get challenge: %w", err)
	}
	if !ok {
		return FetchResult{}, false, nil
	}
	if !cryptoutil.ConstantTimeEqual(rec.SessionToken, sessionToken) {
		return FetchResult{}, false, nil
	}
	return FetchResult{
		ID:         rec.ID,
		Payload:    rec.Payload.PublicPayload(),
		Difficulty: rec.Difficulty,
		Dimensions: rec.Dimensions,
		CreatedAt:  rec.CreatedAtSeconds,
		ExpiresAt:  rec.CreatedAtSeconds + int64(e.cfg.ChallengeTTL.Seconds()),
	}, true, nil
}

// Solve consumes a challenge exactly once and returns a structured
// verdict (§4.11). It never returns a non-nil error for a recoverable
// outcome — only for store I/O failures.
func (e *Engine) Solve(id string, in models.SolveInput) (models.VerifyResult, error) {
	rec, ok, err := e.store.Get(id)
	if err != nil {
		e.log.Error("store get failed", zap.String("id", id), zap.Error(err))
		return models.VerifyResult{}, fmt.Errorf("engine: get challenge: %w", err)
	}
	if !ok {
		return fail(models.ReasonExpired), nil
	}

	if !cryptoutil.VerifyHMACHex([]byte(rec.SessionToken), []byte(in.Answer), in.HMAC) {
		return fail(models.ReasonInvalidHMAC), nil
	}

	// Single-use: delete now, regardless of the eventual verdict (I2).
	rec, deleted, err := e.store.Delete(id)
	if err != nil {
		e.log.Error("store delete failed", zap.String("id", id), zap.Error(err))
		return models.VerifyResult{}, fmt.Errorf("engine: delete challenge: %w", err)
	}
	if !deleted {
		// Lost the compare-and-delete race to a concurrent solve.
		return fail(models.ReasonExpired), nil
	}

	driver, ok := e.registry.Get(rec.Payload.Type)
	if !ok {
		return fail(models.ReasonWrongAnswer), nil
	}
	if !driver.Verify(rec.AnswerHash, in.Answer) {
		return fail(models.ReasonWrongAnswer), nil
	}

	nowMs := time.Now().UnixMilli()
	baseElapsed := nowMs - rec.CreatedAtServerMs
	rtt := int64(0)
	if in.ClientRTTMs > 0 {
		rtt = in.ClientRTTMs
		if half := baseElapsed / 2; rtt > half {
			rtt = half
		}
	}
	elapsed := baseElapsed - rtt

	var timingAnalysis models.TimingAnalysis
	if e.cfg.Timing.Enabled {
		timingAnalysis = e.analyzer.Analyze(elapsed, rec.Payload.Type, rec.Difficulty, in.ClientRTTMs)
		if timingAnalysis.Zone == models.ZoneTooFast {
			return fail(models.ReasonTooFast), nil
		}
		if timingAnalysis.Zone == models.ZoneTimeout {
			return fail(models.ReasonTimeout), nil
		}
	}

	var patternAnalysis *models.TimingPatternAnalysis
	if len(in.StepTimings) > 0 {
		pa := timing.AnalyzePattern(in.StepTimings)
		patternAnalysis = &pa
	}

	score := computeScore(rec.Dimensions, timingAnalysis, patternAnalysis)

	var modelIdentity *models.ModelIdentification
	modelFamily := "unknown"
	pomiConfidence := 0.0
	if e.cfg.PoMI.Enabled && len(rec.InjectedCanaries) > 0 {
		ident := e.classifier.Classify(rec.InjectedCanaries, in.CanaryResponses)
		modelIdentity = &ident
		pomiConfidence = ident.Confidence
		if ident.Family != "unknown" {
			modelFamily = ident.Family
		}
	}
	if modelFamily == "unknown" && in.Metadata != nil && in.Metadata.Model != "" {
		modelFamily = in.Metadata.Model
	}

	var anomalies []models.SessionTimingAnomaly
	if e.cfg.Timing.SessionTrackingEnabled {
		key := id
		if in.Metadata != nil && in.Metadata.Model != "" {
			key = in.Metadata.Model
		}
		e.tracker.Record(key, models.SessionObservation{
			ElapsedMs:   elapsed,
			Zone:        timingAnalysis.Zone,
			TimestampMs: nowMs,
		})
		anomalies = e.tracker.Analyze(key)
	}

	signed, _, err := e.issuer.Sign(rec.ID, score, modelFamily, pomiConfidence, []string{rec.ID}, e.cfg.TokenTTL)
	if err != nil {
		e.log.Error("token sign failed", zap.String("id", rec.ID), zap.Error(err))
		return models.VerifyResult{}, fmt.Errorf("engine: sign token: %w", err)
	}

	e.log.Debug("challenge solved",
		zap.String("id", rec.ID),
		zap.String("model_family", modelFamily),
		zap.String("timing_zone", string(timingAnalysis.Zone)),
		zap.Float64("overall_score", score.Overall()),
	)

	return models.VerifyResult{
		Success:          true,
		Score:            score,
		Token:            signed,
		ModelIdentity:    modelIdentity,
		TimingAnalysis:   &timingAnalysis,
		PatternAnalysis:  patternAnalysis,
		SessionAnomalies: anomalies,
	}, nil
}

// VerifyToken checks a previously issued token's validity, delegating
// to the token package (§4.2).
func (e *Engine) VerifyToken(signed string) (models.TokenClaims, error) {
	return e.issuer.Verify(signed)
}

func fail(reason models.FailReason) models.VerifyResult {
	return models.VerifyResult{Success: false, Reason: reason}
}

// computeScore implements the scoring formulas from §4.11.
func computeScore(dims []models.ChallengeDimension, ta models.TimingAnalysis, pa *models.TimingPatternAnalysis) models.AgentCapabilityScore {
	has := func(d models.ChallengeDimension) bool {
		for _, x := range dims {
			if x == d {
				return true
			}
		}
		return false
	}

	p := ta.Penalty
	pp := 0.0
	if pa != nil && pa.Verdict == models.VerdictArtificial {
		pp = 0.3
	}

	reasoning := 0.5
	if has(models.DimensionReasoning) {
		reasoning = 0.9
	}
	execution := 0.5
	if has(models.DimensionExecution) {
		execution = 0.95
	}
	speed := round3((1 - p) * 0.95)

	autonomyBase := 0.9
	if ta.Zone == models.ZoneHuman || ta.Zone == models.ZoneSuspicious {
		autonomyBase = (1 - p) * 0.9
	}
	autonomy := round3(autonomyBase * (1 - pp))

	consistencyBase := 0.9
	if has(models.DimensionMemory) {
		consistencyBase = 0.92
	}
	consistency := round3(consistencyBase * (1 - pp))

	return models.AgentCapabilityScore{
		Reasoning:   reasoning,
		Execution:   execution,
		Autonomy:    autonomy,
		Speed:       speed,
		Consistency: consistency,
	}
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
