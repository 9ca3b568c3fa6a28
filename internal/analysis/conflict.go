package analysis

import (
	"math"

	"github.com/AmineChaigneau/anketiraj-me-api/internal/types"
)

// Reference ceilings for SCI normalization, based on typical observed
// ranges. Values at or above a ceiling saturate that component at 1.0.
var sciCeilings = struct {
	flips        float64 // total direction reversals
	maxDeviation float64 // px
	auc          float64 // px^2
	avgDeviation float64 // px
	velocity     float64 // px/s
}{
	flips:        20,
	maxDeviation: 100,
	auc:          500,
	avgDeviation: 50,
	velocity:     2000,
}

// sciWeights sum to 1.0, which keeps the weighted sum of pre-clamped
// components inside [0,100] without a final clamp.
var sciWeights = struct {
	flips        float64
	maxDeviation float64
	auc          float64
	avgDeviation float64
	velocity     float64
	hover        float64
}{
	flips:        0.25,
	maxDeviation: 0.20,
	auc:          0.20,
	avgDeviation: 0.15,
	velocity:     0.10,
	hover:        0.10,
}

// ConflictScore computes the survey conflict index (SCI) for one record.
// Higher values reflect more hesitation: more direction reversals, larger
// excursions from the ideal path, slower traversal, and more dwelling on
// options that were not selected.
func ConflictScore(rec *types.TelemetryRecord) float64 {
	dev := rec.Metrics.Deviation
	vel := rec.Metrics.Velocity

	totalMaxDev := dev.MaxDeviationPositive + math.Abs(dev.MaxDeviationNegative)
	totalAUC := dev.AUCPositive + math.Abs(dev.AUCNegative)

	tm := AnalyzeTrajectory(rec.Trajectory)
	totalFlips := float64(tm.XFlips + tm.YFlips)

	normFlips := normalize(totalFlips, sciCeilings.flips)
	normMaxDev := normalize(totalMaxDev, sciCeilings.maxDeviation)
	normAUC := normalize(totalAUC, sciCeilings.auc)
	normAvgDev := normalize(tm.AverageDeviation, sciCeilings.avgDeviation)
	// Slower traversal means more time spent deciding, so the velocity
	// factor is inverted.
	normVelocity := 1 - normalize(vel.AverageVelocityPxPerSec, sciCeilings.velocity)

	raw := sciWeights.flips*normFlips +
		sciWeights.maxDeviation*normMaxDev +
		sciWeights.auc*normAUC +
		sciWeights.avgDeviation*normAvgDev +
		sciWeights.velocity*normVelocity +
		sciWeights.hover*hoverRatio(rec)

	return raw * 100
}

// hoverRatio is the fraction of hovers spent on options other than the one
// finally selected. Zero when hover counts are absent or sum to zero.
func hoverRatio(rec *types.TelemetryRecord) float64 {
	counts := rec.Metrics.Hover.HoverCounts
	if len(counts) == 0 {
		return 0
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}

	selected := counts[rec.Metadata.SelectedResponse]
	return float64(total-selected) / float64(total)
}
