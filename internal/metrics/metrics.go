// Package metrics exposes AgentAuth's Prometheus instrumentation,
// grounded on hortator-ai-Hortator's use of prometheus/client_golang —
// a small set of package-level counters/histograms registered once and
// updated by the internal/httpapi handlers and guard middleware around
// engine calls, rather than a bespoke metrics abstraction.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ChallengesInitialized counts init calls by difficulty.
	ChallengesInitialized = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentauth",
		Name:      "challenges_initialized_total",
		Help:      "Number of challenges created by init, labeled by difficulty.",
	}, []string{"difficulty"})

	// SolveOutcomes counts solve calls by their VerifyResult reason
	// ("success" for Success=true).
	SolveOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentauth",
		Name:      "solve_outcomes_total",
		Help:      "Number of solve calls, labeled by outcome reason (or 'success').",
	}, []string{"outcome"})

	// TimingZones counts the zone classification assigned to each
	// solved challenge.
	TimingZones = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentauth",
		Name:      "timing_zone_total",
		Help:      "Number of solves landing in each timing zone.",
	}, []string{"zone"})

	// ModelFamilyIdentifications counts PoMI classification outcomes.
	ModelFamilyIdentifications = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentauth",
		Name:      "model_family_identifications_total",
		Help:      "Number of solves, labeled by the classified model family (or 'unknown').",
	}, []string{"family"})

	// SolveLatency observes solve's end-to-end handling latency.
	SolveLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agentauth",
		Name:      "solve_handling_seconds",
		Help:      "Wall-clock time spent inside engine.Solve, in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// ClassifierConfidence observes the PoMI classifier's posterior
	// confidence for the winning family on every classified solve.
	ClassifierConfidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "agentauth",
		Name:      "classifier_confidence",
		Help:      "Posterior confidence of the winning model family from PoMI classification.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	})

	// GuardRejections counts guard.Check rejections by kind.
	GuardRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agentauth",
		Name:      "guard_rejections_total",
		Help:      "Number of guard rejections, labeled by rejection kind.",
	}, []string{"kind"})
)

// Registry is a dedicated prometheus.Registry for AgentAuth's metrics,
// so embedding programs can mount it without colliding with their own
// default registry.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		ChallengesInitialized,
		SolveOutcomes,
		TimingZones,
		ModelFamilyIdentifications,
		SolveLatency,
		ClassifierConfidence,
		GuardRejections,
	)
}
