package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"atlas/internal/storage"
)

// SyncMessage asks the mirror worker to refresh one record. It carries only
// the identity; the worker loads the current state from the database.
type SyncMessage struct {
	Kind      storage.Kind `json:"kind"`
	ID        string       `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
}

func NewSyncMessage(kind storage.Kind, id string) *SyncMessage {
	return &SyncMessage{
		Kind:      kind,
		ID:        id,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SyncMessageFromJSON decodes and validates a message body.
func SyncMessageFromJSON(data []byte) (*SyncMessage, error) {
	var msg SyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if !msg.Kind.Valid() {
		return nil, fmt.Errorf("unsupported record kind %q", msg.Kind)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("missing record id")
	}
	return &msg, nil
}
