package service

import (
	"sync"

	"habit-tracker/internal/model"
	"habit-tracker/internal/schedule"
)

// CompletionStore holds the last loaded snapshot of the completion override table.
// It is only ever replaced wholesale.
type CompletionStore struct {
	mu       sync.RWMutex
	byKey    schedule.CompletionMap
	rowCount int
}

func NewCompletionStore() *CompletionStore {
	return &CompletionStore{byKey: schedule.CompletionMap{}}
}

// Replace swaps the snapshot for one built from rows.
func (s *CompletionStore) Replace(rows []model.TaskCompletion) {
	next := schedule.NewCompletionMap(rows)
	s.mu.Lock()
	s.byKey = next
	s.rowCount = len(rows)
	s.mu.Unlock()
}

// Snapshot returns a copy of the full override mapping.
func (s *CompletionStore) Snapshot() schedule.CompletionMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(schedule.CompletionMap, len(s.byKey))
	for k, v := range s.byKey {
		out[k] = v
	}
	return out
}

func (s *CompletionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rowCount
}
