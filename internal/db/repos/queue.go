// Package repos provides access to the durable job queue
package repos

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/db/models"
)

var (
	// ErrHandleExpired is returned when an update or delete presents a pop
	// receipt that is no longer current. The visibility window lapsed and
	// another consumer may already hold the message; callers must not retry.
	ErrHandleExpired = errors.New("message handle expired")

	// ErrStoreUnavailable is returned when the underlying store cannot be
	// reached or rejects the operation at the transport level.
	ErrStoreUnavailable = errors.New("job store unavailable")
)

// QueueRepository is the durable job store. It keeps one row per in-flight
// job and realizes queue visibility semantics as an explicit lease: dequeue
// stamps each row with a fresh pop receipt and a visibility deadline, and all
// mutations are validated against the receipt they were issued with.
type QueueRepository struct {
	db  *gorm.DB
	cfg *config.QueueConfig
}

// NewQueueRepository creates a new queue repository instance
func NewQueueRepository(db *gorm.DB, cfg *config.QueueConfig) *QueueRepository {
	return &QueueRepository{db: db, cfg: cfg}
}

// Create idempotently ensures the underlying queue table exists
func (r *QueueRepository) Create(_ context.Context) error {
	if err := r.db.AutoMigrate(&models.QueueMessage{}); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Enqueue appends a new job record to the queue. The message becomes visible
// immediately and expires after the configured TTL. The caller guarantees a
// unique job id; no deduplication happens here.
func (r *QueueRepository) Enqueue(ctx context.Context, record *models.JobRecord) (*models.QueueMessage, error) {
	if err := record.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	msg := &models.QueueMessage{
		Queue:      r.cfg.QueueName,
		MessageID:  uuid.New().String(),
		PopReceipt: uuid.New().String(),
		VisibleAt:  now,
		ExpiresAt:  now.Add(r.cfg.MessageTTL),
	}
	if err := msg.SetRecord(record); err != nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return msg, nil
}

// DequeueBatch leases up to maxCount currently-visible messages for the given
// visibility window. Each returned message carries a fresh pop receipt; the
// rows stay invisible to other consumers until the window elapses or the
// holder updates or deletes them. An empty batch is not an error.
func (r *QueueRepository) DequeueBatch(ctx context.Context, maxCount int, visibility time.Duration) ([]*models.QueueMessage, error) {
	now := time.Now().UTC()

	var candidates []models.QueueMessage
	err := r.db.WithContext(ctx).
		Where("queue = ? AND visible_at <= ? AND expires_at > ?", r.cfg.QueueName, now, now).
		Order("created_at").
		Limit(maxCount).
		Find(&candidates).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	leased := make([]*models.QueueMessage, 0, len(candidates))
	for i := range candidates {
		msg := candidates[i]
		receipt := uuid.New().String()
		visibleAt := now.Add(visibility)

		// Claim the row against the receipt we read. Zero rows affected
		// means another consumer leased it between the select and here.
		res := r.db.WithContext(ctx).Model(&models.QueueMessage{}).
			Where("message_id = ? AND pop_receipt = ?", msg.MessageID, msg.PopReceipt).
			Updates(map[string]interface{}{
				models.MessagePopReceiptField: receipt,
				models.MessageVisibleAtField:  visibleAt,
				"dequeue_count":               gorm.Expr("dequeue_count + 1"),
			})
		if res.Error != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
		}
		if res.RowsAffected == 0 {
			continue
		}

		msg.PopReceipt = receipt
		msg.VisibleAt = visibleAt
		msg.DequeueCount++
		leased = append(leased, &msg)
	}
	return leased, nil
}

// Update replaces the record addressed by the handle and re-extends its
// visibility. Returns ErrHandleExpired if the handle's receipt is stale.
func (r *QueueRepository) Update(ctx context.Context, handle models.MessageHandle, record *models.JobRecord, visibility time.Duration) error {
	msg := models.QueueMessage{}
	if err := msg.SetRecord(record); err != nil {
		return err
	}

	res := r.db.WithContext(ctx).Model(&models.QueueMessage{}).
		Where("message_id = ? AND pop_receipt = ?", handle.MessageID, handle.PopReceipt).
		Updates(map[string]interface{}{
			models.MessagePayloadField:    msg.Payload,
			models.MessagePopReceiptField: uuid.New().String(),
			models.MessageVisibleAtField:  time.Now().UTC().Add(visibility),
		})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrHandleExpired
	}
	return nil
}

// Delete removes the message addressed by the handle. Returns
// ErrHandleExpired if the handle's receipt is stale; callers treat that as
// already-deleted.
func (r *QueueRepository) Delete(ctx context.Context, handle models.MessageHandle) error {
	res := r.db.WithContext(ctx).Unscoped().
		Where("message_id = ? AND pop_receipt = ?", handle.MessageID, handle.PopReceipt).
		Delete(&models.QueueMessage{})
	if res.Error != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrHandleExpired
	}
	return nil
}

// List returns the messages currently tracked in the queue, oldest first,
// regardless of visibility. Used by the operator surfaces only.
func (r *QueueRepository) List(ctx context.Context, opts *models.ListOptions) ([]models.QueueMessage, error) {
	var messages []models.QueueMessage
	query := r.db.WithContext(ctx).
		Where("queue = ?", r.cfg.QueueName).
		Order("created_at")
	if opts != nil {
		if opts.Limit > 0 {
			query = query.Limit(opts.Limit)
		}
		query = query.Offset(opts.Offset)
	}
	if err := query.Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return messages, nil
}
