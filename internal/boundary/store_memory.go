package boundary

import (
	"context"
	"sync"

	id "haven/pkg/domain"
)

// InMemoryRestrictionsStore holds per-client flags behind a RWMutex. Used in
// tests and single-node deployments; production resolves flags from the
// guardrails table.
type InMemoryRestrictionsStore struct {
	mu           sync.RWMutex
	restrictions map[id.ClientID]Restrictions
}

func NewInMemoryRestrictionsStore() *InMemoryRestrictionsStore {
	return &InMemoryRestrictionsStore{
		restrictions: make(map[id.ClientID]Restrictions),
	}
}

// Set replaces the client's flags.
func (s *InMemoryRestrictionsStore) Set(r Restrictions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restrictions[r.ClientID] = r
}

// Restrictions returns the client's flags; a missing entry means
// unrestricted.
func (s *InMemoryRestrictionsStore) Restrictions(_ context.Context, clientID id.ClientID) (Restrictions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.restrictions[clientID]; ok {
		return r, nil
	}
	return Restrictions{ClientID: clientID}, nil
}
