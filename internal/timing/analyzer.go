// Package timing implements the single-response zone analyzer and the
// multi-step pattern analyzer (§4.9), adapted from the teacher's
// internal/heuristics/timing_analysis.go: a struct-returning analysis
// function with a switch over classification buckets, rather than a
// stateful object.
package timing

import (
	"fmt"
	"math"

	"github.com/agentauth/core/pkg/models"
)

// defaultBaseline is used whenever no calibrated baseline exists for a
// (challenge_type, difficulty) pair (§4.9).
var defaultBaseline = models.TimingBaseline{
	TooFastMs: 50,
	AILowerMs: 50,
	AIUpperMs: 2000,
	HumanMs:   10000,
	TimeoutMs: 30000,
	MeanMs:    3000,
	StdMs:     2000,
}

// Analyzer looks up calibrated baselines and classifies response
// latency into a TimingZone with an associated penalty and confidence.
type Analyzer struct {
	baselines map[string]models.TimingBaseline // keyed by "type/difficulty"
}

// NewAnalyzer builds an Analyzer over the given baseline table. A nil
// or empty map is valid — every lookup then falls back to defaults.
func NewAnalyzer(baselines map[string]models.TimingBaseline) *Analyzer {
	if baselines == nil {
		baselines = make(map[string]models.TimingBaseline)
	}
	return &Analyzer{baselines: baselines}
}

func baselineKey(challengeType string, difficulty models.Difficulty) string {
	return challengeType + "/" + string(difficulty)
}

// Analyze classifies a single response's elapsed time (§4.9).
// rttMs <= 0 means no RTT compensation was supplied.
func (a *Analyzer) Analyze(elapsedMs int64, challengeType string, difficulty models.Difficulty, rttMs int64) models.TimingAnalysis {
	baseline, ok := a.baselines[baselineKey(challengeType, difficulty)]
	if !ok {
		baseline = defaultBaseline
	}

	aiUpper := baseline.AIUpperMs
	human := baseline.HumanMs
	if rttMs > 0 {
		inflate := int64(math.Max(float64(rttMs)*0.5, 200))
		aiUpper += inflate
		human += inflate
	}

	var zone models.TimingZone
	switch {
	case elapsedMs < baseline.TooFastMs:
		zone = models.ZoneTooFast
	case elapsedMs <= aiUpper:
		zone = models.ZoneAIZone
	case elapsedMs <= human:
		zone = models.ZoneSuspicious
	case elapsedMs <= baseline.TimeoutMs:
		zone = models.ZoneHuman
	default:
		zone = models.ZoneTimeout
	}

	penalty := penaltyFor(zone, elapsedMs, aiUpper, human)
	zScore := 0.0
	if baseline.StdMs > 0 {
		zScore = (float64(elapsedMs) - baseline.MeanMs) / baseline.StdMs
	}
	confidence, details := confidenceFor(zone, elapsedMs, baseline, aiUpper, human)

	return models.TimingAnalysis{
		ElapsedMs:  elapsedMs,
		Zone:       zone,
		ZScore:     zScore,
		Penalty:    penalty,
		Confidence: confidence,
		Details:    details,
	}
}

func penaltyFor(zone models.TimingZone, elapsedMs, aiUpper, human int64) float64 {
	switch zone {
	case models.ZoneTooFast:
		return 1.0
	case models.ZoneAIZone:
		return 0.0
	case models.ZoneSuspicious:
		span := float64(human - aiUpper)
		if span <= 0 {
			return 0.3
		}
		return 0.3 + 0.4*((float64(elapsedMs)-float64(aiUpper))/span)
	case models.ZoneHuman:
		return 0.9
	case models.ZoneTimeout:
		return 1.0
	}
	return 0.0
}

func confidenceFor(zone models.TimingZone, elapsedMs int64, baseline models.TimingBaseline, aiUpper, human int64) (float64, string) {
	var confidence float64
	var details string

	switch zone {
	case models.ZoneTooFast:
		if baseline.TooFastMs > 0 {
			confidence = 1.0 - float64(elapsedMs)/float64(baseline.TooFastMs)
		} else {
			confidence = 1.0
		}
	case models.ZoneAIZone:
		mean := baseline.MeanMs
		span := math.Max(float64(aiUpper)-mean, mean-float64(baseline.AILowerMs))
		if span <= 0 {
			confidence = 1.0
		} else {
			confidence = 1.0 - math.Min(1.0, math.Abs(float64(elapsedMs)-mean)/span)
		}
		if elapsedMs%500 == 0 || elapsedMs%100 == 0 {
			confidence *= 0.85
			details = "[round-number timing detected]"
		}
	case models.ZoneSuspicious:
		confidence = 0.5
	case models.ZoneHuman:
		confidence = 0.8
	case models.ZoneTimeout:
		confidence = 1.0
	}

	if confidence < 0 {
		confidence = 0
	}
	if confidence > 1 {
		confidence = 1
	}
	return confidence, details
}

// AnalyzePattern is the multi-step pattern analyzer (§4.9). Fewer than
// two step timings is inconclusive by definition.
func AnalyzePattern(stepMs []int64) models.TimingPatternAnalysis {
	if len(stepMs) < 2 {
		return models.TimingPatternAnalysis{Trend: models.TrendConstant, Verdict: models.VerdictInconclusive}
	}

	mean := meanOf(stepMs)
	std := stdDevOf(stepMs, mean)
	varianceCoeff := 0.0
	if mean != 0 {
		varianceCoeff = std / mean
	}

	slope := normalizedSlope(stepMs, mean)
	var trend models.TimingTrend
	switch {
	case math.Abs(slope) < 0.05:
		trend = models.TrendConstant
	case slope > 0.1:
		trend = models.TrendIncreasing
	case slope < -0.1:
		trend = models.TrendDecreasing
	default:
		trend = models.TrendVariable
	}

	roundCount := 0
	for _, ms := range stepMs {
		if ms%100 == 0 || ms%500 == 0 {
			roundCount++
		}
	}
	roundRatio := float64(roundCount) / float64(len(stepMs))

	var verdict models.PatternVerdict
	switch {
	case (varianceCoeff < 0.05 && len(stepMs) >= 3) || roundRatio > 0.5:
		verdict = models.VerdictArtificial
	case varianceCoeff > 0.1:
		verdict = models.VerdictNatural
	default:
		verdict = models.VerdictInconclusive
	}

	return models.TimingPatternAnalysis{
		VarianceCoefficient: varianceCoeff,
		Trend:               trend,
		RoundNumberRatio:    roundRatio,
		Verdict:             verdict,
	}
}

func meanOf(xs []int64) float64 {
	sum := 0.0
	for _, x := range xs {
		sum += float64(x)
	}
	return sum / float64(len(xs))
}

func stdDevOf(xs []int64, mean float64) float64 {
	sumSq := 0.0
	for _, x := range xs {
		d := float64(x) - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

// normalizedSlope computes a simple linear-regression slope over index
// vs. value, normalized by the mean value so it's comparable across
// scales.
func normalizedSlope(xs []int64, mean float64) float64 {
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i, x := range xs {
		fi := float64(i)
		sumX += fi
		sumY += float64(x)
		sumXY += fi * float64(x)
		sumXX += fi * fi
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 || mean == 0 {
		return 0
	}
	slope := (n*sumXY - sumX*sumY) / denom
	return slope / mean
}

// AnalysisSummary returns a debug-friendly one-liner for a, in the
// spirit of the teacher's compact Stringers on its analysis result types.
func AnalysisSummary(a models.TimingAnalysis) string {
	return fmt.Sprintf("zone=%s elapsed=%dms penalty=%.2f z=%.2f", a.Zone, a.ElapsedMs, a.Penalty, a.ZScore)
}
