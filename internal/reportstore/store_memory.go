// Package reportstore archives finished audit reports. Two implementations
// share the ports.ReportStore interface: an in-memory store for single-node
// and test use, and a PostgreSQL store for durable archives.
package reportstore

import (
	"context"
	"sort"
	"sync"

	"docaudit/internal/audit/models"
	dErrors "docaudit/pkg/domain-errors"
)

// ErrNotFound keeps store-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "report not found")

type MemoryStore struct {
	mu      sync.RWMutex
	reports map[string]models.Report
}

func NewMemory() *MemoryStore {
	return &MemoryStore{
		reports: make(map[string]models.Report),
	}
}

func (s *MemoryStore) Save(_ context.Context, report models.Report) error {
	if report.ID == "" {
		return dErrors.New(dErrors.CodeBadRequest, "report id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	report, ok := s.reports[id]
	if !ok {
		return models.Report{}, ErrNotFound
	}
	return report, nil
}

// List returns every archived report, newest first; ties break on ID so the
// order is stable.
func (s *MemoryStore) List(_ context.Context) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	reports := make([]models.Report, 0, len(s.reports))
	for _, r := range s.reports {
		reports = append(reports, r)
	}
	sort.Slice(reports, func(i, j int) bool {
		if !reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].CreatedAt.After(reports[j].CreatedAt)
		}
		return reports[i].ID < reports[j].ID
	})
	return reports, nil
}
