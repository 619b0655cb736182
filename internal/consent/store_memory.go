package consent

import (
	"context"
	"sync"

	id "haven/pkg/domain"
	dErrors "haven/pkg/domain-errors"
)

// InMemoryStore keeps event streams in process memory. Used by tests and
// single-node development setups.
type InMemoryStore struct {
	mu       sync.RWMutex
	streams  map[id.ConsentID][]Event
	byClient map[id.ClientID][]id.ConsentID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		streams:  make(map[id.ConsentID][]Event),
		byClient: make(map[id.ClientID][]id.ConsentID),
	}
}

func (s *InMemoryStore) Append(_ context.Context, clientID id.ClientID, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	consentID := event.ConsentID()
	if _, exists := s.streams[consentID]; !exists {
		s.byClient[clientID] = append(s.byClient[clientID], consentID)
	}
	s.streams[consentID] = append(s.streams[consentID], event)
	return nil
}

func (s *InMemoryStore) Stream(_ context.Context, consentID id.ConsentID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream, ok := s.streams[consentID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "consent not found")
	}
	out := make([]Event, len(stream))
	copy(out, stream)
	return out, nil
}

func (s *InMemoryStore) ConsentIDsByClient(_ context.Context, clientID id.ClientID) ([]id.ConsentID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byClient[clientID]
	out := make([]id.ConsentID, len(ids))
	copy(out, ids)
	return out, nil
}
