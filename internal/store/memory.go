package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/atmx/sales-engine/internal/model"
)

// MemoryStore implements Store with an in-memory map. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]*model.Report
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]*model.Report),
	}
}

func (s *MemoryStore) SaveReport(_ context.Context, r *model.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[r.ID]; ok {
		return fmt.Errorf("report %s already exists", r.ID)
	}
	s.reports[r.ID] = cloneReport(r)
	return nil
}

func (s *MemoryStore) GetReport(_ context.Context, id string) (*model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return cloneReport(r), nil
}

func (s *MemoryStore) ListReports(_ context.Context) ([]model.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]model.Report, 0, len(s.reports))
	for _, r := range s.reports {
		reports = append(reports, r.Summary())
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID < reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})
	return reports, nil
}

// cloneReport copies a report deeply enough that callers cannot mutate
// stored entries.
func cloneReport(r *model.Report) *model.Report {
	c := *r
	c.Entries = make([]model.ReportEntry, len(r.Entries))
	for i, e := range r.Entries {
		top := make([]model.TopProduct, len(e.TopProducts))
		copy(top, e.TopProducts)
		e.TopProducts = top
		c.Entries[i] = e
	}
	return &c
}
