package canary

import (
	"testing"

	"github.com/agentauth/core/pkg/models"
)

// TestClassifierExactMatchSingleCanary is seed scenario S5: expected
// literal "alpha" for gpt-4-class, "beta" for claude-3-class; response
// "alpha" with weight 0.5 over a uniform 5-family prior should leave
// gpt-4-class with the highest posterior after one update.
func TestClassifierExactMatchSingleCanary(t *testing.T) {
	c := models.Canary{
		ID:               "probe-1",
		InjectionMethod:  models.InjectionInline,
		ConfidenceWeight: 0.5,
		Analysis: models.CanaryAnalysis{
			Kind: models.AnalysisExactMatch,
			ExactMatch: map[string]string{
				"gpt-4-class":    "alpha",
				"claude-3-class": "beta",
			},
		},
	}
	cl := NewClassifier(DefaultFamilies, 0.5)
	result := cl.Classify([]models.Canary{c}, map[string]string{"probe-1": "alpha"})

	gptConf := confidenceOf(result.Alternatives, "gpt-4-class")
	for _, alt := range result.Alternatives {
		if alt.Family == "gpt-4-class" {
			continue
		}
		if alt.Confidence >= gptConf {
			t.Fatalf("gpt-4-class posterior %f not strictly greater than %s posterior %f", gptConf, alt.Family, alt.Confidence)
		}
	}
}

func TestPosteriorNormalizesToOne(t *testing.T) {
	c1 := models.Canary{
		ID: "p1", ConfidenceWeight: 0.3,
		Analysis: models.CanaryAnalysis{Kind: models.AnalysisExactMatch, ExactMatch: map[string]string{"gpt-4-class": "x"}},
	}
	c2 := models.Canary{
		ID: "p2", ConfidenceWeight: 0.4,
		Analysis: models.CanaryAnalysis{Kind: models.AnalysisPattern, Pattern: map[string]string{"llama-class": "y"}},
	}
	cl := NewClassifier(DefaultFamilies, 0.5)
	result := cl.Classify([]models.Canary{c1, c2}, map[string]string{"p1": "x", "p2": "y"})

	sum := 0.0
	for _, alt := range result.Alternatives {
		sum += alt.Confidence
	}
	if diff := sum - 1.0; diff > 0.01 || diff < -0.01 {
		t.Fatalf("posterior sums to %f, want ~1.0", sum)
	}
}

func TestClassifyBelowThresholdIsUnknown(t *testing.T) {
	cl := NewClassifier(DefaultFamilies, 0.99)
	result := cl.Classify(nil, nil)
	if result.Family != "unknown" {
		t.Fatalf("Family = %s, want unknown when no evidence clears threshold", result.Family)
	}
}

func confidenceOf(alts []models.FamilyConfidence, family string) float64 {
	for _, a := range alts {
		if a.Family == family {
			return a.Confidence
		}
	}
	return -1
}

func TestInjectorNonDestructive(t *testing.T) {
	cat := NewCatalog()
	inj := NewInjector(cat)
	payload := models.ChallengePayload{
		Type:         "crypto-nl",
		Instructions: "original instructions",
		Data:         "AAAA",
	}
	before := payload.Data
	after, selected := inj.Inject(payload, 2)

	if after.Data != before {
		t.Fatalf("Inject() mutated data field: %s != %s", after.Data, before)
	}
	if len(selected) == 0 {
		t.Fatalf("Inject() selected no canaries")
	}
	if after.Instructions == "original instructions" {
		t.Fatalf("Inject() did not rewrite instructions")
	}
}
