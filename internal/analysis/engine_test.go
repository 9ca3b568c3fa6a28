package analysis

import (
	"fmt"
	"sync"
	"testing"

	"github.com/AmineChaigneau/anketiraj-me-api/internal/errors"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fastRecord is direct, fast and decisive: SCI 5, UEI 100.
func fastRecord(userID string) *types.TelemetryRecord {
	rec := newRecord()
	rec.Metadata.UserID = userID
	rec.Metrics.Velocity.AverageVelocityPxPerSec = 1000
	rec.Metrics.Velocity.MaximalVelocityPxPerSec = 2000
	rec.Metrics.Complexity.InitiationTimeMs = 200
	return rec
}

func TestEngine_Score_MissingSections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*types.TelemetryRecord)
		missing string
	}{
		{
			name:    "missing metadata",
			mutate:  func(r *types.TelemetryRecord) { r.Metadata = nil },
			missing: "metadata",
		},
		{
			name:    "missing trajectory",
			mutate:  func(r *types.TelemetryRecord) { r.Trajectory = nil },
			missing: "trajectory",
		},
		{
			name:    "missing metrics",
			mutate:  func(r *types.TelemetryRecord) { r.Metrics = nil },
			missing: "metrics",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := NewEngine()
			rec := newRecord()
			tt.mutate(rec)

			_, err := engine.Score(rec, true)

			require.Error(t, err)
			appErr := errors.ToAppError(err)
			assert.Equal(t, errors.CategoryValidation, appErr.Category)
			assert.Equal(t, 400, appErr.HTTPStatus)
			assert.Contains(t, appErr.Error(), tt.missing)

			// A rejected record must not touch the history.
			assert.Empty(t, engine.History(""))
		})
	}
}

func TestEngine_Score_NilRecord(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Score(nil, true)

	require.Error(t, err)
	assert.Equal(t, errors.CategoryValidation, errors.ToAppError(err).Category)
}

func TestEngine_Score_SingleRecord(t *testing.T) {
	engine := NewEngine()

	scores, err := engine.Score(newRecord(), true)

	require.NoError(t, err)
	assert.InDelta(t, 10.0, scores.SCI, 1e-9)
	assert.InDelta(t, 35.0, scores.UEI, 1e-9)
	assert.InDelta(t, 36.0, scores.SEI, 1e-9)
	assert.Len(t, engine.History(""), 1)
}

func TestEngine_Score_CumulativeSEI(t *testing.T) {
	engine := NewEngine()

	first, err := engine.Score(newRecord(), true)
	require.NoError(t, err)
	assert.InDelta(t, 36.0, first.SEI, 1e-9)

	second, err := engine.Score(fastRecord("user-1"), true)
	require.NoError(t, err)

	// The second SEI is computed over both history entries, not over the
	// new record alone.
	assert.InDelta(t, 5.0, second.SCI, 1e-9)
	assert.InDelta(t, 100.0, second.UEI, 1e-9)
	assert.InDelta(t, 47.42, second.SEI, 1e-9)
	assert.Len(t, engine.History("user-1"), 2)
}

func TestEngine_Score_IdenticalRecordsGrowHistory(t *testing.T) {
	engine := NewEngine()

	for i := 0; i < 2; i++ {
		scores, err := engine.Score(newRecord(), true)
		require.NoError(t, err)
		assert.InDelta(t, 36.0, scores.SEI, 1e-9)
	}

	assert.Len(t, engine.History(""), 2)
}

func TestEngine_Score_WithoutHistoryUpdate(t *testing.T) {
	engine := NewEngine()

	scores, err := engine.Score(newRecord(), false)

	require.NoError(t, err)
	// No history for this respondent yet, so SEI is neutral.
	assert.InDelta(t, 50.0, scores.SEI, 1e-9)
	assert.Empty(t, engine.History(""))
}

func TestEngine_Score_RoundedToTwoDecimals(t *testing.T) {
	engine := NewEngine()
	rec := fastRecord("user-1")
	rec.Metrics.Velocity.AverageVelocityPxPerSec = 333.3

	scores, err := engine.Score(rec, true)

	require.NoError(t, err)
	for _, v := range []float64{scores.SCI, scores.UEI, scores.SEI} {
		assert.InDelta(t, v, round2(v), 1e-12, "already rounded")
	}
}

func TestEngine_Score_FiltersHistoryByUser(t *testing.T) {
	engine := NewEngine()

	_, err := engine.Score(fastRecord("alice"), true)
	require.NoError(t, err)
	_, err = engine.Score(fastRecord("bob"), true)
	require.NoError(t, err)
	_, err = engine.Score(fastRecord("alice"), true)
	require.NoError(t, err)

	assert.Len(t, engine.History(""), 3)
	assert.Len(t, engine.History("alice"), 2)
	assert.Len(t, engine.History("bob"), 1)
	for _, entry := range engine.History("alice") {
		assert.Equal(t, "alice", entry.UserID)
	}
}

func TestEngine_Reset(t *testing.T) {
	engine := NewEngine()
	_, err := engine.Score(newRecord(), true)
	require.NoError(t, err)

	engine.Reset()

	assert.Empty(t, engine.History(""))

	stats := engine.SessionStats()
	assert.Equal(t, 0, stats.TotalCalculations)
	assert.Equal(t, 0, stats.UniqueUsers)
}

func TestEngine_SessionStats(t *testing.T) {
	engine := NewEngine()
	for _, user := range []string{"alice", "bob", "alice", "carol"} {
		_, err := engine.Score(fastRecord(user), true)
		require.NoError(t, err)
	}

	stats := engine.SessionStats()

	assert.Equal(t, 4, stats.TotalCalculations)
	assert.Equal(t, 3, stats.UniqueUsers)
}

func TestEngine_ConcurrentScoring(t *testing.T) {
	engine := NewEngine()
	const workers = 16

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := engine.Score(fastRecord(fmt.Sprintf("user-%d", n%4)), true)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Len(t, engine.History(""), workers)
}
