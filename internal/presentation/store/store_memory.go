// Package store persists one request cycle per browser session.
//
// Error contract: FindBySession returns an error wrapping sentinel.ErrNotFound
// when the session has no cycle. Infrastructure failures are returned wrapped
// with context.
package store

import (
	"context"
	"fmt"
	"sync"

	"vaultflow/internal/presentation/models"
	"vaultflow/internal/sentinel"
	id "vaultflow/pkg/domain"
)

// InMemoryCycleStore keeps cycles in process memory for tests and single
// instance deployments.
type InMemoryCycleStore struct {
	mu     sync.RWMutex
	cycles map[id.SessionID]*models.Cycle
}

func NewMemory() *InMemoryCycleStore {
	return &InMemoryCycleStore{cycles: make(map[id.SessionID]*models.Cycle)}
}

func (s *InMemoryCycleStore) Save(_ context.Context, c *models.Cycle) error {
	if c == nil {
		return fmt.Errorf("cycle is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cycles[c.SessionID] = c.Clone()
	return nil
}

func (s *InMemoryCycleStore) FindBySession(_ context.Context, sessionID id.SessionID) (*models.Cycle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cycles[sessionID]
	if !ok {
		return nil, fmt.Errorf("cycle not found: %w", sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}
