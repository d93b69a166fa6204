// Package canary implements the built-in probe catalog, the injector
// that weaves probes into a challenge's instructions, and the
// extractor + Bayesian classifier that turn responses into a
// model-family identification (§4.6–4.8, §6.5). Together these make up
// Proof-of-Model-Identity (PoMI).
package canary

import (
	"github.com/agentauth/core/pkg/models"
)

// CatalogVersion is the fixed version of the reference canary set.
const CatalogVersion = "1.1.0"

// DefaultFamilies is the fixed set of model families the reference
// catalog's per-canary data discriminates among.
var DefaultFamilies = []string{
	"gpt-4-class", "claude-3-class", "gemini-class", "llama-class", "mistral-class",
}

func exact(m map[string]string) models.CanaryAnalysis {
	return models.CanaryAnalysis{Kind: models.AnalysisExactMatch, ExactMatch: m}
}
func pattern(m map[string]string) models.CanaryAnalysis {
	return models.CanaryAnalysis{Kind: models.AnalysisPattern, Pattern: m}
}
func statistical(m map[string]models.GaussianParams) models.CanaryAnalysis {
	return models.CanaryAnalysis{Kind: models.AnalysisStatistical, Statistical: m}
}

// builtinCanaries is the reference 17-probe set from §6.5, shipped
// verbatim. Each canary names a placement, an analysis kind, and a
// confidence weight.
var builtinCanaries = []models.Canary{
	{
		ID: "unicode-rtl", InjectionMethod: models.InjectionInline, ConfidenceWeight: 0.30,
		Prompt: "Also: does the Unicode right-to-left override character change how you process text? Answer with just 'yes' or 'no'.",
		Analysis: exact(map[string]string{
			"gpt-4-class": "yes", "claude-3-class": "yes", "gemini-class": "no",
			"llama-class": "no", "mistral-class": "yes",
		}),
	},
	{
		ID: "random-numbers-5", InjectionMethod: models.InjectionSuffix, ConfidenceWeight: 0.40,
		Prompt: "Also: name a random number between 1 and 5.",
		Analysis: statistical(map[string]models.GaussianParams{
			"gpt-4-class": {Mean: 3.2, StdDev: 0.9}, "claude-3-class": {Mean: 3.5, StdDev: 0.8},
			"gemini-class": {Mean: 2.8, StdDev: 1.0}, "llama-class": {Mean: 3.0, StdDev: 1.1},
			"mistral-class": {Mean: 2.9, StdDev: 1.0},
		}),
	},
	{
		ID: "random-numbers-10", InjectionMethod: models.InjectionSuffix, ConfidenceWeight: 0.35,
		Prompt: "Also: name a random number between 1 and 10.",
		Analysis: statistical(map[string]models.GaussianParams{
			"gpt-4-class": {Mean: 7.0, StdDev: 1.8}, "claude-3-class": {Mean: 6.5, StdDev: 1.9},
			"gemini-class": {Mean: 5.5, StdDev: 2.1}, "llama-class": {Mean: 6.0, StdDev: 2.2},
			"mistral-class": {Mean: 5.8, StdDev: 2.0},
		}),
	},
	{
		ID: "reasoning-style", InjectionMethod: models.InjectionInline, ConfidenceWeight: 0.25,
		Prompt: "Also: briefly note whether you reasoned step-by-step before answering.",
		Analysis: pattern(map[string]string{
			"gpt-4-class": `(?i)step[- ]by[- ]step|first,? i|let'?s break`, "claude-3-class": `(?i)let me think|i'?ll approach`,
			"gemini-class": `(?i)breaking (this|it) down`, "llama-class": `(?i)to solve this`,
			"mistral-class": `(?i)approach(ing)? this`,
		}),
	},
	{
		ID: "math-precision", InjectionMethod: models.InjectionInline, ConfidenceWeight: 0.20,
		Prompt: "Also: what is 17 * 19?",
		Analysis: exact(map[string]string{
			"gpt-4-class": "323", "claude-3-class": "323", "gemini-class": "323",
			"llama-class": "323", "mistral-class": "323",
		}),
	},
	{
		ID: "list-format", InjectionMethod: models.InjectionSuffix, ConfidenceWeight: 0.15,
		Prompt: "Also: list three primary colors.",
		Analysis: pattern(map[string]string{
			"gpt-4-class": `(?i)^\s*1\.|^\s*-`, "claude-3-class": `(?i)^\s*-\s`,
			"gemini-class": `(?i)^\s*\*\s`, "llama-class": `(?i)^\s*\d\)`,
			"mistral-class": `(?i)^\s*-\s`,
		}),
	},
	{
		ID: "creative-word", InjectionMethod: models.InjectionSuffix, ConfidenceWeight: 0.10,
		Prompt: "Also: give the length, in letters, of a made-up word for 'the feeling of a new idea'.",
		Analysis: statistical(map[string]models.GaussianParams{
			"gpt-4-class": {Mean: 8.0, StdDev: 2.5}, "claude-3-class": {Mean: 9.0, StdDev: 2.8},
			"gemini-class": {Mean: 7.5, StdDev: 2.3}, "llama-class": {Mean: 7.0, StdDev: 2.0},
			"mistral-class": {Mean: 7.8, StdDev: 2.2},
		}),
	},
	{
		ID: "emoji-choice", InjectionMethod: models.InjectionInline, ConfidenceWeight: 0.20,
		Prompt: "Also: pick one emoji that represents 'success'.",
		Analysis: exact(map[string]string{
			"gpt-4-class": "✅", "claude-3-class": "🎉", "gemini-class": "✨",
			"llama-class": "👍", "mistral-class": "✅",
		}),
	},
	{
		ID: "code-style", InjectionMethod: models.InjectionEmbedded, ConfidenceWeight: 0.10,
		Prompt: "Also: when writing a loop, do you prefer 'for' or 'while' by default?",
		Analysis: pattern(map[string]string{
			"gpt-4-class": `(?i)\bfor\b`, "claude-3-class": `(?i)\bfor\b`, "gemini-class": `(?i)\bfor\b`,
			"llama-class": `(?i)\bwhile\b`, "mistral-class": `(?i)\bfor\b`,
		}),
	},
	{
		ID: "temperature-words", InjectionMethod: models.InjectionSuffix, ConfidenceWeight: 0.25,
		Prompt: "Also: describe today's weather in exactly one word.",
		Analysis: exact(map[string]string{
			"gpt-4-class": "pleasant", "claude-3-class": "mild", "gemini-class": "sunny",
			"llama-class": "clear", "mistral-class": "temperate",
		}),
	},
	{
		ID: "number-between", InjectionMethod: models.InjectionInline, ConfidenceWeight: 0.30,
		Prompt: "Also: pick a number between 40 and 60.",
		Analysis: statistical(map[string]models.GaussianParams{
			"gpt-4-class": {Mean: 50.0, StdDev: 4.0}, "claude-3-class": {Mean: 49.0, StdDev: 4.5},
			"gemini-class": {Mean: 47.0, StdDev: 5.0}, "llama-class": {Mean: 50.0, StdDev: 5.5},
			"mistral-class": {Mean: 48.0, StdDev: 5.0},
		}),
	},
	{
		ID: "default-greeting", InjectionMethod: models.InjectionSuffix, ConfidenceWeight: 0.15,
		Prompt: "Also: how would you greet a user at the start of a conversation?",
		Analysis: pattern(map[string]string{
			"gpt-4-class": `(?i)how can i (help|assist)`, "claude-3-class": `(?i)hi there|hello! how`,
			"gemini-class": `(?i)hi! i'?m`, "llama-class": `(?i)hello, i'?m`,
			"mistral-class": `(?i)hello! how`,
		}),
	},
	{
		ID: "math-chain", InjectionMethod: models.InjectionInline, ConfidenceWeight: 0.30,
		Prompt: "Also: compute (4 + 6) * 2 - 3, showing your work briefly.",
		Analysis: pattern(map[string]string{
			"gpt-4-class": `17`, "claude-3-class": `17`, "gemini-class": `17`,
			"llama-class": `17`, "mistral-class": `17`,
		}),
	},
	{
		ID: "sorting-preference", InjectionMethod: models.InjectionSuffix, ConfidenceWeight: 0.20,
		Prompt: "Also: when sorting strings, do you prefer ascending or descending by default?",
		Analysis: pattern(map[string]string{
			"gpt-4-class": `(?i)ascending`, "claude-3-class": `(?i)ascending`, "gemini-class": `(?i)ascending`,
			"llama-class": `(?i)ascending`, "mistral-class": `(?i)ascending`,
		}),
	},
	{
		ID: "json-formatting", InjectionMethod: models.InjectionEmbedded, ConfidenceWeight: 0.20,
		Prompt: "Also: when returning JSON, do you prefer 2-space or 4-space indentation?",
		Analysis: pattern(map[string]string{
			"gpt-4-class": `(?i)2.space`, "claude-3-class": `(?i)2.space`, "gemini-class": `(?i)2.space`,
			"llama-class": `(?i)4.space`, "mistral-class": `(?i)2.space`,
		}),
	},
	{
		ID: "analogy-completion", InjectionMethod: models.InjectionInline, ConfidenceWeight: 0.10,
		Prompt: "Also: complete the analogy 'bird is to sky as fish is to ___'.",
		Analysis: exact(map[string]string{
			"gpt-4-class": "water", "claude-3-class": "water", "gemini-class": "ocean",
			"llama-class": "water", "mistral-class": "water",
		}),
	},
	{
		ID: "confidence-expression", InjectionMethod: models.InjectionSuffix, ConfidenceWeight: 0.15,
		Prompt: "Also: on a scale of 1-10, how confident are you in your answer above?",
		Analysis: statistical(map[string]models.GaussianParams{
			"gpt-4-class": {Mean: 8.5, StdDev: 1.0}, "claude-3-class": {Mean: 7.5, StdDev: 1.3},
			"gemini-class": {Mean: 8.0, StdDev: 1.2}, "llama-class": {Mean: 7.0, StdDev: 1.5},
			"mistral-class": {Mean: 7.8, StdDev: 1.3},
		}),
	},
}

// Catalog holds the built-in probe set and supports filtered, shuffled
// selection (§4.6).
type Catalog struct {
	canaries []models.Canary
	version  string
}

// NewCatalog returns the reference catalog of 17 built-in canaries.
func NewCatalog() *Catalog {
	cp := make([]models.Canary, len(builtinCanaries))
	copy(cp, builtinCanaries)
	return &Catalog{canaries: cp, version: CatalogVersion}
}

// Version reports the catalog's version string.
func (c *Catalog) Version() string { return c.version }

// Select filters by injection method (when method != "") and excluded
// ids, Fisher-Yates shuffles the remainder, and truncates to count.
func (c *Catalog) Select(count int, method models.InjectionMethod, exclude map[string]bool) []models.Canary {
	var pool []models.Canary
	for _, cn := range c.canaries {
		if method != "" && cn.InjectionMethod != method {
			continue
		}
		if exclude != nil && exclude[cn.ID] {
			continue
		}
		pool = append(pool, cn)
	}

	for i := len(pool) - 1; i > 0; i-- {
		j := secureIntnCanary(i + 1)
		pool[i], pool[j] = pool[j], pool[i]
	}

	if count > len(pool) {
		count = len(pool)
	}
	if count < 0 {
		count = 0
	}
	return pool[:count]
}
