package services

import (
	"context"
	"time"

	"github.com/runslash/runslash/internal/db/models"
	"github.com/runslash/runslash/internal/db/repos"
	"github.com/runslash/runslash/internal/logger"
)

// TrackedJob is the operator view of one queued record
type TrackedJob struct {
	MessageID    string            `json:"message_id"`
	Record       *models.JobRecord `json:"record"`
	VisibleAt    time.Time         `json:"visible_at"`
	ExpiresAt    time.Time         `json:"expires_at"`
	DequeueCount int               `json:"dequeue_count"`
}

// Tracker exposes read-only views of the tracking queue
type Tracker struct {
	queue *repos.QueueRepository
}

// NewTracker creates a new tracker service instance
func NewTracker(queue *repos.QueueRepository) *Tracker {
	return &Tracker{queue: queue}
}

// List returns the currently tracked jobs, oldest first. Messages whose
// payload no longer decodes are skipped with a log line rather than failing
// the listing.
func (t *Tracker) List(ctx context.Context, opts *models.ListOptions) ([]TrackedJob, error) {
	messages, err := t.queue.List(ctx, opts)
	if err != nil {
		return nil, err
	}

	jobs := make([]TrackedJob, 0, len(messages))
	for i := range messages {
		record, err := messages[i].Record()
		if err != nil {
			logger.Errorf("Skipping undecodable message %s in listing: %v", messages[i].MessageID, err)
			continue
		}
		jobs = append(jobs, TrackedJob{
			MessageID:    messages[i].MessageID,
			Record:       record,
			VisibleAt:    messages[i].VisibleAt,
			ExpiresAt:    messages[i].ExpiresAt,
			DequeueCount: messages[i].DequeueCount,
		})
	}
	return jobs, nil
}
