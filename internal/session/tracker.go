// Package session implements the per-session cross-challenge anomaly
// tracker (§4.10): an append-only ring of timing observations keyed by
// session identifier, protected by a single mutex (§5).
package session

import (
	"fmt"
	"math"
	"sync"

	"github.com/agentauth/core/pkg/models"
)

// Tracker holds one observation ring per session key. The spec notes
// (Open Question 3) that keying by metadata.model conflates session
// and model identity when callers share a model name; this
// implementation keys strictly by whatever string the caller passes,
// leaving that choice to the engine.
type Tracker struct {
	mu   sync.Mutex
	rows map[string][]models.SessionObservation
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{rows: make(map[string][]models.SessionObservation)}
}

// Record appends one observation to key's ring.
func (t *Tracker) Record(key string, obs models.SessionObservation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows[key] = append(t.rows[key], obs)
}

// Analyze returns the anomalies detectable from key's current ring.
// Fewer than two observations yields no anomalies (§4.10).
func (t *Tracker) Analyze(key string) []models.SessionTimingAnomaly {
	t.mu.Lock()
	rows := append([]models.SessionObservation{}, t.rows[key]...)
	t.mu.Unlock()

	if len(rows) < 2 {
		return nil
	}

	var anomalies []models.SessionTimingAnomaly

	if len(rows) >= 3 {
		if a := zoneInconsistency(rows); a != nil {
			anomalies = append(anomalies, *a)
		}
		if a := timingVarianceAnomaly(rows); a != nil {
			anomalies = append(anomalies, *a)
		}
	}

	if a := rapidSuccession(rows); a != nil {
		anomalies = append(anomalies, *a)
	}

	return anomalies
}

func zoneInconsistency(rows []models.SessionObservation) *models.SessionTimingAnomaly {
	var aiCount, humanCount int
	for _, r := range rows {
		switch r.Zone {
		case models.ZoneAIZone:
			aiCount++
		case models.ZoneHuman, models.ZoneSuspicious:
			humanCount++
		}
	}
	if aiCount >= 1 && humanCount >= 1 {
		severity := models.SeverityMedium
		if humanCount >= aiCount {
			severity = models.SeverityHigh
		}
		return &models.SessionTimingAnomaly{
			Type:        models.AnomalyZoneInconsistency,
			Description: fmt.Sprintf("session mixes %d ai_zone and %d human/suspicious responses", aiCount, humanCount),
			Severity:    severity,
		}
	}
	return nil
}

func timingVarianceAnomaly(rows []models.SessionObservation) *models.SessionTimingAnomaly {
	mean, std := meanStd(rows)
	if mean == 0 {
		return nil
	}
	coeff := std / mean
	if coeff < 0.05 {
		return &models.SessionTimingAnomaly{
			Type:        models.AnomalyTimingVariance,
			Description: fmt.Sprintf("cross-challenge timing variance coefficient %.4f is implausibly low", coeff),
			Severity:    models.SeverityHigh,
		}
	}
	return nil
}

func rapidSuccession(rows []models.SessionObservation) *models.SessionTimingAnomaly {
	for i := 1; i < len(rows); i++ {
		gap := rows[i].TimestampMs - rows[i-1].TimestampMs
		if gap < 5000 {
			severity := models.SeverityLow
			if gap < 2000 {
				severity = models.SeverityHigh
			}
			return &models.SessionTimingAnomaly{
				Type:        models.AnomalyRapidSuccession,
				Description: fmt.Sprintf("consecutive challenges solved %dms apart", gap),
				Severity:    severity,
			}
		}
	}
	return nil
}

func meanStd(rows []models.SessionObservation) (mean, std float64) {
	sum := 0.0
	for _, r := range rows {
		sum += float64(r.ElapsedMs)
	}
	mean = sum / float64(len(rows))
	sumSq := 0.0
	for _, r := range rows {
		d := float64(r.ElapsedMs) - mean
		sumSq += d * d
	}
	std = math.Sqrt(sumSq / float64(len(rows)))
	return
}
