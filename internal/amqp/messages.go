package amqp

import (
	"encoding/json"
	"time"
)

// LedgerChangedMessage announces that the ledger of one day was rewritten.
// Consumers re-read the day from the store; the message carries no records.
type LedgerChangedMessage struct {
	DateKey   string    `json:"date_key"`
	Operation string    `json:"operation"`
	Length    int       `json:"length"`
	RecordID  string    `json:"record_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerChangedMessage creates a change message stamped with the current time
func NewLedgerChangedMessage(dateKey, operation string, length int, recordID string) *LedgerChangedMessage {
	return &LedgerChangedMessage{
		DateKey:   dateKey,
		Operation: operation,
		Length:    length,
		RecordID:  recordID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes a message body
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
