package config

import (
	"fmt"
	"time"
)

// Queue configuration defaults. The batch size and visibility window match
// the storage-queue settings this service has always polled with.
const (
	DefaultQueueName        = "runslash-jobs"
	DefaultBatchSize        = 15
	DefaultVisibilityWindow = 5 * time.Second
	DefaultMessageTTL       = 240 * time.Minute
	DefaultPollInterval     = 30 * time.Second
)

// QueueConfig represents the configuration for the durable job queue
type QueueConfig struct {
	QueueName        string
	BatchSize        int
	VisibilityWindow time.Duration
	MessageTTL       time.Duration
	PollInterval     time.Duration
}

// NewQueueConfig creates a queue configuration with defaults applied
func NewQueueConfig() *QueueConfig {
	return &QueueConfig{
		QueueName:        DefaultQueueName,
		BatchSize:        DefaultBatchSize,
		VisibilityWindow: DefaultVisibilityWindow,
		MessageTTL:       DefaultMessageTTL,
		PollInterval:     DefaultPollInterval,
	}
}

// Validate validates the queue configuration
func (c *QueueConfig) Validate() error {
	if c.QueueName == "" {
		return fmt.Errorf("queue name is required")
	}
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.VisibilityWindow <= 0 {
		return fmt.Errorf("visibility window must be positive")
	}
	if c.MessageTTL <= 0 {
		return fmt.Errorf("message TTL must be positive")
	}
	return nil
}
