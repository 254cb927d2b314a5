// Package store records the issuances started for each holder.
//
// Save is idempotent on the upstream issuance id: recording the same
// issuance twice keeps the first record.
package store

import (
	"context"
	"sort"
	"sync"

	"vaultflow/internal/issuance/models"
)

// DefaultListLimit caps ListByHolder when no positive limit is given.
const DefaultListLimit = 50

// InMemoryStore keeps issuance records in process memory.
type InMemoryStore struct {
	mu         sync.RWMutex
	records    []models.Record
	issuanceID map[string]struct{}
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{issuanceID: make(map[string]struct{})}
}

func (s *InMemoryStore) Save(_ context.Context, record models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.issuanceID[record.IssuanceID]; ok {
		return nil
	}
	s.issuanceID[record.IssuanceID] = struct{}{}
	s.records = append(s.records, record)
	return nil
}

func (s *InMemoryStore) ListByHolder(_ context.Context, holderDID string, limit int) ([]models.Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, 0)
	for _, r := range s.records {
		if r.HolderDID == holderDID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
