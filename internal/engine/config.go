package engine

import (
	"time"

	"github.com/agentauth/core/pkg/models"
)

// PoMIConfig controls canary injection and classification (§6.7).
type PoMIConfig struct {
	Enabled             bool
	CanariesPerChallenge int
	ModelFamilies        []string
	ConfidenceThreshold  float64
}

// TimingConfig controls the timing analyzer and session tracker (§6.7).
type TimingConfig struct {
	Enabled                bool
	Baselines              map[string]models.TimingBaseline
	SessionTrackingEnabled bool
}

// Config is the engine's full configuration (§6.7).
type Config struct {
	Secret             []byte
	ChallengeTTL        time.Duration
	TokenTTL            time.Duration
	MinScore            float64
	PoMI                PoMIConfig
	Timing              TimingConfig
}

// DefaultConfig returns the configuration defaults named in §6.7.
func DefaultConfig(secret []byte) Config {
	return Config{
		Secret:       secret,
		ChallengeTTL: 30 * time.Second,
		TokenTTL:     3600 * time.Second,
		MinScore:     0.7,
		PoMI: PoMIConfig{
			Enabled:              true,
			CanariesPerChallenge: 2,
			ModelFamilies:        nil, // filled from canary.DefaultFamilies by New when empty
			ConfidenceThreshold:  0.5,
		},
		Timing: TimingConfig{
			Enabled:                true,
			SessionTrackingEnabled: false,
		},
	}
}
