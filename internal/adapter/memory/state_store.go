package memory

import (
	"context"
	"sync"

	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// StateStore keeps session state in process memory. It is used by the
// storefront when no database is configured and by tests.
type StateStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

var _ interfaces.StateStore = (*StateStore)(nil)

func NewStateStore() *StateStore {
	return &StateStore{data: make(map[string]map[string][]byte)}
}

func (s *StateStore) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[sessionID][key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (s *StateStore) Put(_ context.Context, sessionID, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, ok := s.data[sessionID]
	if !ok {
		keys = make(map[string][]byte)
		s.data[sessionID] = keys
	}
	keys[key] = append([]byte(nil), value...)
	return nil
}

func (s *StateStore) Delete(_ context.Context, sessionID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data[sessionID], key)
	return nil
}

func (s *StateStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, sessionID)
	return nil
}
