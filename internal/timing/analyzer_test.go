package timing

import (
	"testing"

	"github.com/agentauth/core/pkg/models"
)

// TestZoneBoundariesWithDefaults is seed scenario S3.
func TestZoneBoundariesWithDefaults(t *testing.T) {
	a := NewAnalyzer(nil)

	cases := []struct {
		elapsed    int64
		wantZone   models.TimingZone
		wantExact  bool
		wantPenalty float64
	}{
		{5, models.ZoneTooFast, true, 1.0},
		{200, models.ZoneAIZone, true, 0.0},
		{35000, models.ZoneTimeout, true, 1.0},
	}
	for _, c := range cases {
		got := a.Analyze(c.elapsed, "crypto-nl", models.DifficultyEasy, 0)
		if got.Zone != c.wantZone {
			t.Errorf("Analyze(%d) zone = %s, want %s", c.elapsed, got.Zone, c.wantZone)
		}
		if c.wantExact && got.Penalty != c.wantPenalty {
			t.Errorf("Analyze(%d) penalty = %f, want %f", c.elapsed, got.Penalty, c.wantPenalty)
		}
	}

	suspicious := a.Analyze(4000, "crypto-nl", models.DifficultyEasy, 0)
	if suspicious.Zone != models.ZoneSuspicious {
		t.Errorf("Analyze(4000) zone = %s, want suspicious", suspicious.Zone)
	}
	if suspicious.Penalty <= 0 || suspicious.Penalty >= 1 {
		t.Errorf("Analyze(4000) penalty = %f, want in (0,1)", suspicious.Penalty)
	}

	human := a.Analyze(12000, "crypto-nl", models.DifficultyEasy, 0)
	if human.Zone != models.ZoneHuman {
		t.Errorf("Analyze(12000) zone = %s, want human", human.Zone)
	}
}

// TestZoneMonotonicity is property P5: for a fixed baseline, strictly
// increasing elapsed_ms crosses zones in order.
func TestZoneMonotonicity(t *testing.T) {
	a := NewAnalyzer(nil)
	order := map[models.TimingZone]int{
		models.ZoneTooFast: 0, models.ZoneAIZone: 1, models.ZoneSuspicious: 2,
		models.ZoneHuman: 3, models.ZoneTimeout: 4,
	}
	last := -1
	for _, ms := range []int64{5, 200, 1000, 4000, 12000, 35000} {
		got := a.Analyze(ms, "crypto-nl", models.DifficultyEasy, 0)
		rank := order[got.Zone]
		if rank < last {
			t.Fatalf("zone order regressed at elapsed=%d: %s (rank %d) < previous rank %d", ms, got.Zone, rank, last)
		}
		last = rank
	}
}

// TestPenaltyRange is property P6.
func TestPenaltyRange(t *testing.T) {
	a := NewAnalyzer(nil)
	for _, ms := range []int64{0, 10, 100, 500, 1000, 5000, 10000, 20000, 40000} {
		got := a.Analyze(ms, "crypto-nl", models.DifficultyMedium, 0)
		if got.Penalty < 0 || got.Penalty > 1 {
			t.Fatalf("Analyze(%d) penalty = %f, out of [0,1]", ms, got.Penalty)
		}
		if got.Zone == models.ZoneAIZone && got.Penalty != 0 {
			t.Fatalf("Analyze(%d) ai_zone penalty = %f, want 0", ms, got.Penalty)
		}
		if (got.Zone == models.ZoneTooFast || got.Zone == models.ZoneTimeout) && got.Penalty != 1 {
			t.Fatalf("Analyze(%d) zone %s penalty = %f, want 1", ms, got.Zone, got.Penalty)
		}
	}
}

// TestPatternVerdicts is seed scenario S4.
func TestPatternVerdicts(t *testing.T) {
	cases := []struct {
		steps []int64
		want  models.PatternVerdict
	}{
		{[]int64{100, 100, 100, 100}, models.VerdictArtificial},
		{[]int64{150, 230, 180, 310, 190}, models.VerdictNatural},
		{[]int64{500, 1000, 500, 1000}, models.VerdictArtificial},
	}
	for _, c := range cases {
		got := AnalyzePattern(c.steps)
		if got.Verdict != c.want {
			t.Errorf("AnalyzePattern(%v) verdict = %s, want %s", c.steps, got.Verdict, c.want)
		}
	}
}

func TestPatternInconclusiveUnderTwoSteps(t *testing.T) {
	got := AnalyzePattern([]int64{100})
	if got.Verdict != models.VerdictInconclusive {
		t.Fatalf("AnalyzePattern(single step) verdict = %s, want inconclusive", got.Verdict)
	}
}
