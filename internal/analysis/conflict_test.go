package analysis

import (
	"testing"

	"github.com/AmineChaigneau/anketiraj-me-api/internal/types"
	"github.com/stretchr/testify/assert"
)

func newRecord() *types.TelemetryRecord {
	return &types.TelemetryRecord{
		Metadata: &types.Metadata{
			UserID:           "user-1",
			SurveyID:         "survey-1",
			QuestionID:       "q-1",
			Timestamp:        "2025-03-01T10:00:00Z",
			SelectedResponse: "A",
		},
		Trajectory: []types.TrajectoryPoint{},
		Metrics:    &types.MetricsBundle{},
	}
}

func TestConflictScore_ZeroMetrics(t *testing.T) {
	// With every input at zero the only live component is the inverted
	// velocity factor: zero velocity normalizes to full conflict weight.
	rec := newRecord()

	assert.InDelta(t, 10.0, ConflictScore(rec), 1e-9)
}

func TestConflictScore_KnownComponents(t *testing.T) {
	rec := newRecord()
	rec.Trajectory = pts([2]float64{0, 0}, [2]float64{100, 100})
	rec.Metrics.Deviation = types.DeviationMetrics{
		MaxDeviationPositive: 30,
		MaxDeviationNegative: -20,
		AUCPositive:          100,
		AUCNegative:          -150,
	}
	rec.Metrics.Velocity.AverageVelocityPxPerSec = 1000
	rec.Metrics.Hover.HoverCounts = map[string]int{"A": 2, "B": 1}

	// flips 0, maxDev 50/100, auc 250/500, avgDev 0,
	// velocity 1-1000/2000, hover 1/3
	expected := 100 * (0.20*0.5 + 0.20*0.5 + 0.10*0.5 + 0.10*(1.0/3.0))

	assert.InDelta(t, expected, ConflictScore(rec), 1e-9)
}

func TestConflictScore_SaturatedCeilings(t *testing.T) {
	rec := newRecord()
	rec.Metrics.Deviation = types.DeviationMetrics{
		MaxDeviationPositive: 5000,
		MaxDeviationNegative: -5000,
		AUCPositive:          90000,
		AUCNegative:          -90000,
	}
	rec.Metrics.Hover.HoverCounts = map[string]int{"B": 7}

	score := ConflictScore(rec)

	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 100.0)
}

func TestHoverRatio(t *testing.T) {
	tests := []struct {
		name     string
		counts   map[string]int
		selected string
		expected float64
	}{
		{
			name:     "nil counts",
			counts:   nil,
			selected: "A",
			expected: 0,
		},
		{
			name:     "empty counts",
			counts:   map[string]int{},
			selected: "A",
			expected: 0,
		},
		{
			name:     "zero-sum counts",
			counts:   map[string]int{"A": 0, "B": 0},
			selected: "A",
			expected: 0,
		},
		{
			name:     "one third spent elsewhere",
			counts:   map[string]int{"A": 2, "B": 1},
			selected: "A",
			expected: 1.0 / 3.0,
		},
		{
			name:     "selection never hovered",
			counts:   map[string]int{"B": 3, "C": 2},
			selected: "A",
			expected: 1,
		},
		{
			name:     "all hovers on the selection",
			counts:   map[string]int{"A": 4},
			selected: "A",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newRecord()
			rec.Metadata.SelectedResponse = tt.selected
			rec.Metrics.Hover.HoverCounts = tt.counts

			assert.InDelta(t, tt.expected, hoverRatio(rec), 1e-12)
		})
	}
}
