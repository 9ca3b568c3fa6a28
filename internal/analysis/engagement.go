package analysis

import (
	"math"

	"github.com/AmineChaigneau/anketiraj-me-api/internal/types"
)

// Reference ceilings for UEI normalization.
var ueiCeilings = struct {
	maxDeviation float64 // px
	speed        float64 // px/s, adequate-speed reference
	decisiveness float64 // px/s, peak-velocity reference
	entropy      float64 // nats
	auc          float64 // px^2
	length       float64 // normalized units
}{
	maxDeviation: 100,
	speed:        1000,
	decisiveness: 2000,
	entropy:      3.0,
	auc:          500,
	length:       5.0,
}

const (
	// Responses initiated faster than this are suspiciously instantaneous
	// and take a flat multiplicative penalty.
	instantInitiationMs = 100
	instantPenalty      = 0.7

	explorationWeight  = 0.7
	deliberationWeight = 0.3
)

// EngagementScore computes the user engagement index (UEI) for one record
// using a dual engagement model. A respondent can be engaged either way:
//
//   - confident: fast, direct, smooth, decisive movement
//   - exploratory: complex, deliberate movement across options
//
// The raw score is the maximum of the two patterns, never their sum, so
// either behavior earns full credit on its own.
func EngagementScore(rec *types.TelemetryRecord) float64 {
	dev := rec.Metrics.Deviation
	vel := rec.Metrics.Velocity
	cpx := rec.Metrics.Complexity

	totalMaxDev := dev.MaxDeviationPositive + math.Abs(dev.MaxDeviationNegative)
	totalAUC := dev.AUCPositive + math.Abs(dev.AUCNegative)

	tm := AnalyzeTrajectory(rec.Trajectory)

	directness := 1 - normalize(totalMaxDev, ueiCeilings.maxDeviation)
	speedAdequacy := normalize(vel.AverageVelocityPxPerSec, ueiCeilings.speed)
	decisiveness := normalize(vel.MaximalVelocityPxPerSec, ueiCeilings.decisiveness)

	confident := (directness + tm.TrajectorySmoothness + speedAdequacy + decisiveness) / 4

	entropyNorm := normalize(cpx.AngleEntropy, ueiCeilings.entropy)
	aucNorm := normalize(totalAUC, ueiCeilings.auc)
	lengthNorm := normalize(tm.TrajectoryLength, ueiCeilings.length)
	exploration := (entropyNorm + aucNorm + lengthNorm) / 3
	deliberation := 1 - normalize(vel.AverageVelocityPxPerSec, ueiCeilings.speed)

	exploratory := explorationWeight*exploration + deliberationWeight*deliberation

	raw := math.Max(confident, exploratory)

	penalty := 1.0
	if cpx.InitiationTimeMs < instantInitiationMs {
		penalty = instantPenalty
	}

	return clip(raw*penalty*100, 0, 100)
}
