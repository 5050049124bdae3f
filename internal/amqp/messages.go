package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// TransactionsChangedMessage announces that the transactions document at Path
// was rewritten. It carries no transaction data: consumers re-read the
// document, so redelivered or reordered messages are harmless.
type TransactionsChangedMessage struct {
	Path      string    `json:"path"`
	Count     int       `json:"count"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionsChangedMessage(path string, count int, op string) *TransactionsChangedMessage {
	return &TransactionsChangedMessage{
		Path:      path,
		Count:     count,
		Op:        op,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionsChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionsChangedMessageFromJSON decodes a message and rejects one without a path.
func TransactionsChangedMessageFromJSON(data []byte) (*TransactionsChangedMessage, error) {
	var msg TransactionsChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Path == "" {
		return nil, errors.New("message has no document path")
	}
	return &msg, nil
}
