package analysis

import (
	"sync"

	"github.com/google/uuid"

	"github.com/AmineChaigneau/anketiraj-me-api/internal/types"
)

// HistoryEntry is one scored question. Entries are immutable once appended.
type HistoryEntry struct {
	ID         string  `json:"id"`
	SCI        float64 `json:"sci"`
	UEI        float64 `json:"uei"`
	UserID     string  `json:"userId"`
	QuestionID string  `json:"questionId"`
	Timestamp  string  `json:"timestamp"`
}

// NewHistoryEntry builds a history entry with a generated ID.
func NewHistoryEntry(sci, uei float64, meta *types.Metadata) HistoryEntry {
	return HistoryEntry{
		ID:         uuid.New().String(),
		SCI:        sci,
		UEI:        uei,
		UserID:     meta.UserID,
		QuestionID: meta.QuestionID,
		Timestamp:  meta.Timestamp,
	}
}

// HistoryStore is an append-only, insertion-ordered log of scored
// questions for one survey session. It is the only mutable state in the
// scoring engine.
type HistoryStore struct {
	mu      sync.RWMutex
	entries []HistoryEntry
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Append adds an entry to the end of the log.
func (s *HistoryStore) Append(e HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
}

// Query returns entries in insertion order. A non-empty userID restricts
// the result to that respondent. The returned slice is always a fresh copy,
// never an alias of the store's backing array.
func (s *HistoryStore) Query(userID string) []HistoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if userID == "" || e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

// Reset empties the store. Irreversible; used when a new survey session
// starts.
func (s *HistoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
}

// Len reports the total number of entries across all respondents.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries)
}
