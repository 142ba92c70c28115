package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotMessage carries one full account snapshot to be written to the
// remote store. Version orders snapshots of the same key.
type SnapshotMessage struct {
	Key       string          `json:"key"`
	Version   int64           `json:"version"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewSnapshotMessage(key string, version int64, data []byte) *SnapshotMessage {
	return &SnapshotMessage{
		Key:       key,
		Version:   version,
		Data:      json.RawMessage(data),
		Timestamp: time.Now(),
	}
}

func (m *SnapshotMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotMessageFromJSON(data []byte) (*SnapshotMessage, error) {
	var msg SnapshotMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
