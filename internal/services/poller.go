// Package services contains the business logic for job tracking: the polling
// cycle that reconciles tracked jobs against the automation provider, and the
// submission path that starts tracking new jobs.
package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/runslash/runslash/internal/automation"
	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/db/models"
	"github.com/runslash/runslash/internal/db/repos"
	"github.com/runslash/runslash/internal/logger"
	"github.com/runslash/runslash/internal/slack"
)

// StatusFetcher queries the automation provider for a job's current state
type StatusFetcher interface {
	GetJob(ctx context.Context, jobID string) (*automation.JobState, error)
}

// Notifier renders and delivers transition notifications
type Notifier interface {
	Render(record *models.JobRecord) (*slack.Message, bool)
	Notify(ctx context.Context, msg *slack.Message) error
}

// Poller drives one reconciliation pass over the tracked jobs. Each pass
// leases a batch from the queue, fetches the current provider state for every
// leased record, announces status transitions, and updates or retires the
// records accordingly. One invocation processes one batch to completion; the
// caller decides the cadence.
type Poller struct {
	queue    *repos.QueueRepository
	fetcher  StatusFetcher
	notifier Notifier
	cfg      *config.QueueConfig
}

// NewPoller creates a new poller instance
func NewPoller(queue *repos.QueueRepository, fetcher StatusFetcher, notifier Notifier, cfg *config.QueueConfig) *Poller {
	return &Poller{
		queue:    queue,
		fetcher:  fetcher,
		notifier: notifier,
		cfg:      cfg,
	}
}

// RunCycle processes one batch of visible messages. Per-record failures are
// isolated: a record that cannot be reconciled this cycle is simply left for
// its lease to lapse. Only a queue-level failure aborts the cycle.
func (p *Poller) RunCycle(ctx context.Context) error {
	batch, err := p.queue.DequeueBatch(ctx, p.cfg.BatchSize, p.cfg.VisibilityWindow)
	if err != nil {
		return fmt.Errorf("failed to dequeue batch: %w", err)
	}
	if len(batch) == 0 {
		logger.Debug("Poller: no tracked jobs visible")
		return nil
	}

	logger.Debugf("Poller: leased %d tracked jobs", len(batch))

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.BatchSize)
	for _, msg := range batch {
		msg := msg
		g.Go(func() error {
			p.processMessage(ctx, msg)
			return nil
		})
	}
	return g.Wait()
}

func (p *Poller) processMessage(ctx context.Context, msg *models.QueueMessage) {
	record, err := msg.Record()
	if err != nil {
		logger.Errorf("Skipping undecodable message %s: %v", msg.MessageID, err)
		return
	}

	state, err := p.fetcher.GetJob(ctx, record.JobID)
	if err != nil {
		// Transient either way: the record stays queued and is retried
		// once its lease lapses. NotFound is not treated as a deletion,
		// the provider may just be eventually consistent.
		if automation.IsNotFound(err) {
			logger.Warnf("Job %s unknown upstream, skipping this cycle", record.JobID)
		} else {
			logger.Errorf("Failed to fetch status for job %s: %v", record.JobID, err)
		}
		return
	}

	if state.Status == record.Status {
		if state.ProvisioningState != record.ProvisioningState {
			// Silent: provisioning state alone never triggers a
			// notification, but the new value is still persisted.
			record.ProvisioningState = state.ProvisioningState
			p.updateRecord(ctx, msg.Handle(), record)
		}
		return
	}

	record.Status = state.Status
	record.ProvisioningState = state.ProvisioningState

	// Announce before mutating the store so a stored status always has a
	// notification attempt behind it. Delivery is best-effort.
	if payload, ok := p.notifier.Render(record); ok {
		if err := p.notifier.Notify(ctx, payload); err != nil {
			logger.Errorf("Failed to deliver status update for job %s: %v", record.JobID, err)
		}
	}

	if record.Status.IsTerminal() {
		p.deleteRecord(ctx, msg.Handle(), record)
		return
	}
	p.updateRecord(ctx, msg.Handle(), record)
}

func (p *Poller) updateRecord(ctx context.Context, handle models.MessageHandle, record *models.JobRecord) {
	err := p.queue.Update(ctx, handle, record, p.cfg.VisibilityWindow)
	if errors.Is(err, repos.ErrHandleExpired) {
		logger.Debugf("Lost lease on job %s, dropping update", record.JobID)
		return
	}
	if err != nil {
		logger.Errorf("Failed to update record for job %s: %v", record.JobID, err)
	}
}

func (p *Poller) deleteRecord(ctx context.Context, handle models.MessageHandle, record *models.JobRecord) {
	err := p.queue.Delete(ctx, handle)
	if errors.Is(err, repos.ErrHandleExpired) {
		// Another consumer already retired it.
		logger.Debugf("Job %s already retired", record.JobID)
		return
	}
	if err != nil {
		logger.Errorf("Failed to retire record for job %s: %v", record.JobID, err)
		return
	}
	logger.Infof("Job %s reached terminal status %s, tracking stopped", record.JobID, record.Status)
}
