package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runslash/runslash/internal/db/models"
	"github.com/runslash/runslash/internal/db/repos"
	"github.com/runslash/runslash/internal/logger"
	"github.com/runslash/runslash/internal/slack"
)

// JobSubmitter starts a runbook job at the automation provider
type JobSubmitter interface {
	CreateJob(ctx context.Context, jobID, runbook string, params []string, requestedBy string) error
}

// SlashCommand is a parsed chat command requesting a runbook run
type SlashCommand struct {
	Text        string
	ChannelName string
	UserName    string
}

// Submission handles the slash-command path: it records a new job in the
// tracking queue, submits it to the automation provider, and produces the
// in-channel reply.
type Submission struct {
	queue     *repos.QueueRepository
	submitter JobSubmitter
	notifier  *slack.Notifier
}

// NewSubmission creates a new submission service instance
func NewSubmission(queue *repos.QueueRepository, submitter JobSubmitter, notifier *slack.Notifier) *Submission {
	return &Submission{
		queue:     queue,
		submitter: submitter,
		notifier:  notifier,
	}
}

// Submit runs one slash command end to end and returns the reply to post in
// the channel. The record is enqueued before the provider call so the poller
// picks up the job even if this process dies right after submission.
func (s *Submission) Submit(ctx context.Context, cmd SlashCommand) *slack.CommandResponse {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return s.notifier.RenderCommandError("the runbook name is required")
	}

	input := strings.Fields(text)
	runbook := input[0]
	params := input[1:]

	record := &models.JobRecord{
		JobID:       uuid.New().String(),
		Runbook:     runbook,
		Channel:     "#" + cmd.ChannelName,
		RequestedBy: cmd.UserName,
		PostedAt:    time.Now().UTC(),
		Status:      models.JobStatusNew,
	}

	if _, err := s.queue.Enqueue(ctx, record); err != nil {
		logger.Errorf("Failed to enqueue job %s: %v", record.JobID, err)
		return s.notifier.RenderCommandError(err.Error())
	}

	if err := s.submitter.CreateJob(ctx, record.JobID, runbook, params, cmd.UserName); err != nil {
		logger.Errorf("Failed to submit job %s for runbook %s: %v", record.JobID, runbook, err)
		return s.notifier.RenderCommandError(err.Error())
	}

	logger.InfoWithFields("Runbook job submitted", map[string]interface{}{
		"job_id":       record.JobID,
		"runbook":      runbook,
		"requested_by": cmd.UserName,
		"channel":      record.Channel,
	})
	return s.notifier.RenderQueued(record, params)
}
