package analysis

import (
	"strings"
	"sync"

	"github.com/AmineChaigneau/anketiraj-me-api/internal/errors"
	"github.com/AmineChaigneau/anketiraj-me-api/internal/types"
)

// Engine orchestrates the scoring pipeline and owns the session history.
// Scoring itself is pure; the history store is the only shared state, and
// the engine mutex keeps the append-then-query sequence inside Score atomic
// under concurrent use.
type Engine struct {
	mu      sync.Mutex
	history *HistoryStore
}

// NewEngine creates an engine with an empty session history.
func NewEngine() *Engine {
	return &Engine{history: NewHistoryStore()}
}

// Score computes SCI and UEI for one record, optionally appends them to the
// session history, and recomputes SEI over the respondent's updated
// history. Results are rounded to two decimal places.
//
// A record missing any of its metadata, trajectory, or metrics sections is
// rejected with a validation error before any state mutates.
func (e *Engine) Score(rec *types.TelemetryRecord, updateHistory bool) (types.ScoreTriple, error) {
	if err := validateRecord(rec); err != nil {
		return types.ScoreTriple{}, err
	}

	sci := ConflictScore(rec)
	uei := EngagementScore(rec)

	e.mu.Lock()
	if updateHistory {
		e.history.Append(NewHistoryEntry(sci, uei, rec.Metadata))
	}
	entries := e.history.Query(rec.Metadata.UserID)
	e.mu.Unlock()

	return types.ScoreTriple{
		SCI: round2(sci),
		UEI: round2(uei),
		SEI: round2(SessionQuality(entries)),
	}, nil
}

// History returns the session history in insertion order, optionally
// filtered to one respondent. The result is a read-only snapshot.
func (e *Engine) History(userID string) []HistoryEntry {
	return e.history.Query(userID)
}

// Reset clears the session history. Used when a new survey session starts.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.history.Reset()
}

// Stats summarizes the session history across all respondents.
type Stats struct {
	TotalCalculations int `json:"total_calculations"`
	UniqueUsers       int `json:"unique_users"`
}

// SessionStats reports how many questions have been scored this session and
// for how many distinct respondents.
func (e *Engine) SessionStats() Stats {
	entries := e.history.Query("")

	users := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		users[entry.UserID] = struct{}{}
	}

	return Stats{
		TotalCalculations: len(entries),
		UniqueUsers:       len(users),
	}
}

func validateRecord(rec *types.TelemetryRecord) error {
	var missing []string
	if rec == nil {
		missing = []string{"metadata", "trajectory", "metrics"}
	} else {
		if rec.Metadata == nil {
			missing = append(missing, "metadata")
		}
		if rec.Trajectory == nil {
			missing = append(missing, "trajectory")
		}
		if rec.Metrics == nil {
			missing = append(missing, "metrics")
		}
	}

	if len(missing) > 0 {
		return errors.NewValidationError(
			"missing required fields: " + strings.Join(missing, ", "))
	}
	return nil
}
