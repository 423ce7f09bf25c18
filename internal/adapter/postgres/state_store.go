package postgres

import (
	"context"
	"fmt"

	"github.com/YelzhanWeb/cafe/internal/interfaces"
)

// stateStore keeps session values as opaque bytes keyed by session and key.
type stateStore struct {
	db DB
}

func NewStateStore(db DB) interfaces.StateStore {
	return &stateStore{db: db}
}

func (s *stateStore) Get(ctx context.Context, sessionID, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRow(ctx, `SELECT value FROM session_state WHERE session_id = $1 AND key = $2`, sessionID, key).Scan(&value)
	if isNoRows(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read session state: %w", err)
	}
	return value, true, nil
}

func (s *stateStore) Put(ctx context.Context, sessionID, key string, value []byte) error {
	query := `
		INSERT INTO session_state (session_id, key, value, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`
	if _, err := s.db.Exec(ctx, query, sessionID, key, value); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	return nil
}

func (s *stateStore) Delete(ctx context.Context, sessionID, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM session_state WHERE session_id = $1 AND key = $2`, sessionID, key); err != nil {
		return fmt.Errorf("failed to delete session state: %w", err)
	}
	return nil
}

func (s *stateStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM session_state WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
