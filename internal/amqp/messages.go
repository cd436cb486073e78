package amqp

import (
	"encoding/json"
	"time"

	"spendsense/internal/core"
)

// ActivityMessage is the event published for every activity-log entry so
// downstream workers can archive the audit trail without touching the
// primary database.
type ActivityMessage struct {
	UserID    string    `json:"userId"`
	EntryID   string    `json:"entryId"`
	Action    string    `json:"action"`
	Entity    string    `json:"entity"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// NewActivityMessage builds the message for an appended log entry.
func NewActivityMessage(userID string, entry core.ActivityEntry) *ActivityMessage {
	return &ActivityMessage{
		UserID:    userID,
		EntryID:   entry.ID,
		Action:    entry.Action,
		Entity:    entry.Entity,
		Details:   entry.Details,
		Timestamp: time.UnixMilli(entry.Timestamp),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON creates a message from JSON bytes
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
