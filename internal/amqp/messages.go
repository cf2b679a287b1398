package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by an EntrySyncMessage.
const (
	OpSync   = "sync"
	OpDelete = "delete"
)

// EntrySyncMessage asks the worker to mirror one ledger entry remotely.
// It carries only the id; the worker reads the entry from the database.
type EntrySyncMessage struct {
	EntryID   string    `json:"entryId"`
	Operation string    `json:"operation"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(entryID, operation string) *EntrySyncMessage {
	return &EntrySyncMessage{
		EntryID:   entryID,
		Operation: operation,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EntrySyncMessageFromJSON decodes and validates a message body.
func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.EntryID == "" {
		return nil, fmt.Errorf("message without entry id")
	}
	switch msg.Operation {
	case OpSync, OpDelete:
	default:
		return nil, fmt.Errorf("unknown operation %q", msg.Operation)
	}
	return &msg, nil
}
