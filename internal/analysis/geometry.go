package analysis

import (
	"math"

	"github.com/AmineChaigneau/anketiraj-me-api/internal/types"
)

// TrajectoryMetrics are the shape features derived from a raw pointer path.
type TrajectoryMetrics struct {
	XFlips               int     `json:"xFlips"`
	YFlips               int     `json:"yFlips"`
	AverageDeviation     float64 `json:"averageDeviation"`
	TrajectoryLength     float64 `json:"trajectoryLength"`
	TrajectorySmoothness float64 `json:"trajectorySmoothness"`
}

// AnalyzeTrajectory derives shape metrics from an ordered pointer path.
// With fewer than two points there is no well-defined shape: all counts and
// distances are zero and smoothness is perfect.
func AnalyzeTrajectory(points []types.TrajectoryPoint) TrajectoryMetrics {
	if len(points) < 2 {
		return TrajectoryMetrics{TrajectorySmoothness: 1.0}
	}

	tm := TrajectoryMetrics{TrajectorySmoothness: 1.0}

	// Direction reversals: a flip is a strict sign change between
	// consecutive displacements; a zero displacement is not a flip.
	for i := 1; i < len(points)-1; i++ {
		dx1 := points[i].X - points[i-1].X
		dx2 := points[i+1].X - points[i].X
		if dx1*dx2 < 0 {
			tm.XFlips++
		}

		dy1 := points[i].Y - points[i-1].Y
		dy2 := points[i+1].Y - points[i].Y
		if dy1*dy2 < 0 {
			tm.YFlips++
		}
	}

	// Mean perpendicular distance of interior points to the straight
	// segment from the first to the last point. A zero-length segment has
	// no usable baseline and contributes zero deviation.
	first, last := points[0], points[len(points)-1]
	lineLength := math.Hypot(last.X-first.X, last.Y-first.Y)

	if lineLength > 0 && len(points) > 2 {
		sum := 0.0
		for i := 1; i < len(points)-1; i++ {
			p := points[i]
			numerator := math.Abs((last.Y-first.Y)*p.X - (last.X-first.X)*p.Y +
				last.X*first.Y - last.Y*first.X)
			sum += numerator / lineLength
		}
		tm.AverageDeviation = sum / float64(len(points)-2)
	}

	// Path length and per-segment headings in one pass.
	angles := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		dx := points[i].X - points[i-1].X
		dy := points[i].Y - points[i-1].Y
		tm.TrajectoryLength += math.Hypot(dx, dy)
		angles = append(angles, math.Atan2(dy, dx))
	}

	// Smoothness is 1 minus the spread of heading changes relative to pi,
	// floored at zero. Population standard deviation, consistent with the
	// angle-entropy convention used by the tracking client.
	if len(angles) > 1 {
		changes := make([]float64, 0, len(angles)-1)
		for i := 1; i < len(angles); i++ {
			changes = append(changes, math.Abs(angles[i]-angles[i-1]))
		}
		tm.TrajectorySmoothness = math.Max(0, 1-popStdDev(changes)/math.Pi)
	}

	return tm
}
