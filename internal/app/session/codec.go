package session

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SchemaVersion is written into every stored value.
const SchemaVersion = 1

const (
	KeyCart        = "cart"
	KeyUser        = "user"
	KeyTableNumber = "tableNumber"
)

// BirthdayReminderKey is the per-user reminder flag key.
func BirthdayReminderKey(userID string) string {
	return "birthdayReminder-" + userID
}

var ErrUnsupportedVersion = errors.New("unsupported state version")

type envelope struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

func Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}
	return json.Marshal(envelope{Version: SchemaVersion, Data: data})
}

// Decode rejects payloads without a known version. Callers treat any error
// as corrupt state.
func Decode(raw []byte, v interface{}) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to decode state envelope: %w", err)
	}
	if env.Version != SchemaVersion {
		return fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("state envelope has no data")
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("failed to decode state data: %w", err)
	}
	return nil
}
