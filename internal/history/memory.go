package history

import (
	"context"
	"sort"
	"sync"

	"pcpart-tracker/internal/models"
)

// MemoryStore is an in-process Store. Tests and local development use it
// in place of the MySQL-backed ledger.
type MemoryStore struct {
	mu   sync.RWMutex
	rows []models.PriceObservation
	next uint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{next: 1}
}

func (s *MemoryStore) Append(ctx context.Context, obs *models.PriceObservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	obs.ID = s.next
	s.next++
	s.rows = append(s.rows, *obs)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]models.PriceObservation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PriceObservation
	for _, r := range s.rows {
		if r.PartCategory != f.Category {
			continue
		}
		if f.PartID != nil && r.PartID != *f.PartID {
			continue
		}
		if f.Since != nil && r.FetchedAt.Before(*f.Since) {
			continue
		}
		if f.Source != nil && r.Source != *f.Source {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FetchedAt.Before(out[j].FetchedAt)
	})
	return out, nil
}

// Len reports the number of stored observations.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
