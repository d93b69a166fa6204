package canary

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/agentauth/core/pkg/models"
)

// Extractor scores an observed response against a single injected
// canary's analysis definition (§4.8, extractor half).
type Extractor struct{}

// Evaluate returns the CanaryEvidence row for one (canary, response)
// pair. isMatch/confidence describe the canary's own verdict, not yet
// attributed to any one family — Classifier does that attribution.
func (Extractor) Evaluate(c models.Canary, response string) models.CanaryEvidence {
	ev := models.CanaryEvidence{CanaryID: c.ID, Observed: response}
	switch c.Analysis.Kind {
	case models.AnalysisExactMatch:
		trimmed := strings.ToLower(strings.TrimSpace(response))
		matched := false
		for _, expected := range c.Analysis.ExactMatch {
			if strings.ToLower(strings.TrimSpace(expected)) == trimmed {
				matched = true
				break
			}
		}
		ev.IsMatch = matched
		if matched {
			ev.ConfidenceContribution = c.ConfidenceWeight
		} else {
			ev.ConfidenceContribution = c.ConfidenceWeight * 0.3
		}
	case models.AnalysisPattern:
		matched := false
		for _, pat := range c.Analysis.Pattern {
			re, err := regexp.Compile("(?i)" + pat)
			if err != nil {
				continue
			}
			if re.MatchString(response) {
				matched = true
				break
			}
		}
		ev.IsMatch = matched
		if matched {
			ev.ConfidenceContribution = c.ConfidenceWeight
		} else {
			ev.ConfidenceContribution = c.ConfidenceWeight * 0.2
		}
	case models.AnalysisStatistical:
		num, ok := firstNumericToken(response)
		matched := false
		if ok {
			for _, g := range c.Analysis.Statistical {
				if g.StdDev > 0 && math.Abs(num-g.Mean) <= 2*g.StdDev {
					matched = true
					break
				}
			}
		}
		ev.IsMatch = matched
		if matched {
			ev.ConfidenceContribution = c.ConfidenceWeight * 0.7
		} else {
			ev.ConfidenceContribution = c.ConfidenceWeight * 0.1
		}
	}
	return ev
}

// firstNumericToken extracts the first run of digits (optionally
// signed/decimal) in s.
func firstNumericToken(s string) (float64, bool) {
	re := regexp.MustCompile(`-?\d+(\.\d+)?`)
	m := re.FindString(s)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Classifier performs Bayesian inference over model families given a
// set of canaries and observed responses (§4.8, classifier half).
type Classifier struct {
	families            []string
	confidenceThreshold float64
}

// NewClassifier builds a Classifier over families with the given
// posterior confidence threshold below which the verdict collapses to
// "unknown".
func NewClassifier(families []string, confidenceThreshold float64) *Classifier {
	return &Classifier{families: families, confidenceThreshold: confidenceThreshold}
}

// Classify folds every (canary, response) pair into a Bayesian
// posterior over families, starting from a uniform prior.
func (cl *Classifier) Classify(canaries []models.Canary, responses map[string]string) models.ModelIdentification {
	posterior := make(map[string]float64, len(cl.families))
	for _, f := range cl.families {
		posterior[f] = 1.0 / float64(len(cl.families))
	}

	var evidence []models.CanaryEvidence
	extractor := Extractor{}

	for _, c := range canaries {
		response, ok := responses[c.ID]
		if !ok {
			continue
		}
		ev := extractor.Evaluate(c, response)
		evidence = append(evidence, ev)

		for _, f := range cl.families {
			likelihood := familyLikelihood(c, f, response)
			posterior[f] *= likelihood
		}
		normalize(posterior)
	}

	bestFamily, bestConf := "", -1.0
	for f, p := range posterior {
		if p > bestConf {
			bestFamily, bestConf = f, p
		}
	}

	alternatives := make([]models.FamilyConfidence, 0, len(posterior))
	for f, p := range posterior {
		alternatives = append(alternatives, models.FamilyConfidence{Family: f, Confidence: round3(p)})
	}
	sort.Slice(alternatives, func(i, j int) bool { return alternatives[i].Confidence > alternatives[j].Confidence })

	result := models.ModelIdentification{
		Family:       bestFamily,
		Confidence:   round3(bestConf),
		Evidence:     evidence,
		Alternatives: alternatives,
	}
	if bestConf < cl.confidenceThreshold {
		result.Family = "unknown"
	}
	return result
}

// familyLikelihood implements the per-family likelihood rules from
// §4.8. A family with no entry for this canary is maximally
// uninformative: likelihood 0.5.
func familyLikelihood(c models.Canary, family, response string) float64 {
	w := c.ConfidenceWeight
	switch c.Analysis.Kind {
	case models.AnalysisExactMatch:
		expected, ok := c.Analysis.ExactMatch[family]
		if !ok {
			return 0.5
		}
		if strings.EqualFold(strings.TrimSpace(expected), strings.TrimSpace(response)) {
			return 0.5 + 0.5*w
		}
		return 0.5 - 0.4*w

	case models.AnalysisPattern:
		pat, ok := c.Analysis.Pattern[family]
		if !ok {
			return 0.5
		}
		re, err := regexp.Compile("(?i)" + pat)
		if err != nil {
			return 0.5
		}
		if re.MatchString(response) {
			return 0.5 + 0.45*w
		}
		return 0.5 - 0.35*w

	case models.AnalysisStatistical:
		g, ok := c.Analysis.Statistical[family]
		if !ok {
			return 0.5
		}
		num, ok := firstNumericToken(response)
		if !ok || g.StdDev <= 0 {
			return 0.5
		}
		z := (num - g.Mean) / g.StdDev
		pdf := math.Exp(-z*z/2) / (g.StdDev * math.Sqrt(2*math.Pi))
		peak := 1 / (g.StdDev * math.Sqrt(2*math.Pi))
		normalized := pdf / peak
		return 0.1 + 0.8*normalized*w
	}
	return 0.5
}

func normalize(posterior map[string]float64) {
	sum := 0.0
	for _, p := range posterior {
		sum += p
	}
	if sum <= 0 {
		// Degenerate case: every family underflowed to zero. Reset to
		// uniform rather than dividing by zero.
		for f := range posterior {
			posterior[f] = 1.0 / float64(len(posterior))
		}
		return
	}
	for f := range posterior {
		posterior[f] /= sum
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
