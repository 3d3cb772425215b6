package store

import (
	"context"
	"sync"

	"bidrag/internal/behandling/models"
	id "bidrag/pkg/domain"
	"bidrag/pkg/platform/sentinel"
)

// InMemory keeps behandlinger in process. It hands out and stores deep copies
// so callers never share record pointers with the store.
type InMemory struct {
	mu    sync.RWMutex
	cases map[id.CaseID]*models.Case
}

func NewInMemory() *InMemory {
	return &InMemory{cases: make(map[id.CaseID]*models.Case)}
}

// Create stores a new behandling at version 1.
func (s *InMemory) Create(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cases[c.ID]; exists {
		return sentinel.ErrConflict
	}
	c.Version = 1
	s.cases[c.ID] = c.Clone()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, caseID id.CaseID) (*models.Case, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return c.Clone(), nil
}

// Save replaces the stored behandling if its version still matches c.Version.
func (s *InMemory) Save(_ context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.cases[c.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if stored.Version != c.Version {
		return sentinel.ErrConflict
	}
	c.Version++
	s.cases[c.ID] = c.Clone()
	return nil
}
