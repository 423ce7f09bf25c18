package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/YelzhanWeb/cafe/internal/adapter/logger"
	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// Manager caches open sessions so each one is loaded from the store exactly
// once per process.
type Manager struct {
	store  interfaces.StateStore
	logger logger.Logger
	now    func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store interfaces.StateStore, lgr logger.Logger) *Manager {
	return &Manager{
		store:    store,
		logger:   lgr,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Open(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("session id is required")
	}

	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		s = newSession(id, m.store, m.logger)
		s.touch(m.now())
		m.sessions[id] = s
	}
	m.mu.Unlock()

	s.loadOnce.Do(func() {
		s.loadErr = s.load(ctx)
	})
	if s.loadErr != nil {
		m.mu.Lock()
		if m.sessions[id] == s {
			delete(m.sessions, id)
		}
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to open session: %w", s.loadErr)
	}

	s.touch(m.now())
	return s, nil
}

// Close tears a session down and deletes its stored state. It waits for an
// in-flight Do to finish.
func (m *Manager) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if s != nil {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
	}

	if err := m.store.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}

	m.logger.Info("session_closed", "Session closed", id, nil)
	return nil
}

// EvictIdle drops sessions unused for longer than idle from memory. Their
// stored state is kept and reloaded on the next Open.
func (m *Manager) EvictIdle(idle time.Duration) int {
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	var victims []*Session
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) && s.mu.TryLock() {
			s.closed = true
			s.mu.Unlock()
			delete(m.sessions, id)
			victims = append(victims, s)
		}
	}
	m.mu.Unlock()

	if len(victims) > 0 {
		m.logger.Debug("sessions_evicted", fmt.Sprintf("Evicted %d idle sessions", len(victims)), "", nil)
	}
	return len(victims)
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (m *Manager) RunEviction(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.EvictIdle(idle)
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
