package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Field names for the queue message model
const (
	// MessagePopReceiptField is the field name for the message pop receipt
	MessagePopReceiptField = "pop_receipt"
	// MessageVisibleAtField is the field name for the message visibility timestamp
	MessageVisibleAtField = "visible_at"
	// MessagePayloadField is the field name for the message payload
	MessagePayloadField = "payload"
)

// QueueMessage is the durable envelope for one tracked job. A row is visible
// for dequeue when its visibility timestamp has passed; every dequeue issues a
// fresh pop receipt, and updates and deletes must present the receipt they
// were issued. A stale receipt means another consumer holds the message.
type QueueMessage struct {
	gorm.Model
	Queue        string          `json:"-" gorm:"not null;index"`
	MessageID    string          `json:"message_id" gorm:"not null;uniqueIndex"`
	PopReceipt   string          `json:"-" gorm:"not null"`
	Payload      json.RawMessage `json:"payload" gorm:"type:jsonb"`
	VisibleAt    time.Time       `json:"visible_at" gorm:"not null;index"`
	ExpiresAt    time.Time       `json:"expires_at" gorm:"not null;index"`
	DequeueCount int             `json:"dequeue_count" gorm:"not null;default:0"`
}

// MessageHandle addresses a leased message for update or delete. The receipt
// is only valid until the visibility window it was issued for elapses.
type MessageHandle struct {
	MessageID  string
	PopReceipt string
}

// Handle returns the handle addressing this message
func (m *QueueMessage) Handle() MessageHandle {
	return MessageHandle{MessageID: m.MessageID, PopReceipt: m.PopReceipt}
}

// Record decodes the payload into a JobRecord
func (m *QueueMessage) Record() (*JobRecord, error) {
	var record JobRecord
	if err := json.Unmarshal(m.Payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode job record: %w", err)
	}
	return &record, nil
}

// SetRecord encodes the given record into the payload
func (m *QueueMessage) SetRecord(record *JobRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode job record: %w", err)
	}
	m.Payload = payload
	return nil
}

// Validate ensures that the message data is valid
func (m *QueueMessage) Validate() error {
	if m.MessageID == "" {
		return fmt.Errorf("message id cannot be empty")
	}
	if len(m.Payload) == 0 {
		return fmt.Errorf("payload cannot be empty")
	}
	return nil
}

// BeforeCreate is a GORM hook that runs before enqueueing a new message
func (m *QueueMessage) BeforeCreate(_ *gorm.DB) error {
	return m.Validate()
}
