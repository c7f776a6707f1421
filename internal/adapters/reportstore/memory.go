// Package reportstore provides validation history adapters.
// Clean Architecture: Adapter implementing ports.ReportStore.
package reportstore

import (
	"context"
	"sort"
	"sync"

	"github.com/0xcro3dile/conllu-pipeline/internal/domain/entities"
)

// InMemoryStore keeps runs for the lifetime of the process.
// Open-Closed: Can be replaced with the SQLite store without changing usecases.
type InMemoryStore struct {
	mu   sync.RWMutex
	runs []entities.ValidationRun
}

// NewInMemoryStore creates an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// Save records a run.
func (s *InMemoryStore) Save(ctx context.Context, run entities.ValidationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = append(s.runs, cloneRun(run))
	return nil
}

// List returns the newest runs first; limit <= 0 returns all of them.
func (s *InMemoryStore) List(ctx context.Context, limit int) ([]entities.ValidationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]entities.ValidationRun, 0, len(s.runs))
	for i := len(s.runs) - 1; i >= 0; i-- {
		runs = append(runs, cloneRun(s.runs[i]))
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].CheckedAt.After(runs[j].CheckedAt)
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Close is a no-op.
func (s *InMemoryStore) Close() error {
	return nil
}

func cloneRun(run entities.ValidationRun) entities.ValidationRun {
	if run.RuleCounts != nil {
		counts := make(map[entities.Rule]int, len(run.RuleCounts))
		for k, v := range run.RuleCounts {
			counts[k] = v
		}
		run.RuleCounts = counts
	}
	return run
}
