package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/db/models"
)

const deliveryTimeout = 10 * time.Second

// statusTheme describes how one job status is announced
type statusTheme struct {
	color    string
	template string
}

// statusThemes maps each announcable status to its message. Statuses absent
// from the table (New, and anything the provider invents later) are
// suppressed: the transition is persisted but nothing is posted.
var statusThemes = map[models.JobStatus]statusTheme{
	models.JobStatusActivating: {ColorNeutral, "On your marks... Job %s is being activated!"},
	models.JobStatusRunning:    {ColorNeutral, "Finally! Job %s is running!"},
	models.JobStatusCompleted:  {ColorSuccess, "Success! Job %s completed!"},
	models.JobStatusFailed:     {ColorFailure, "Oops! Job %s failed!"},
}

// Notifier renders job transitions into webhook payloads and delivers them.
// Delivery is best-effort; a failed post never blocks job-state progress.
type Notifier struct {
	cfg        *config.SlackConfig
	automation *config.AutomationConfig
	httpClient *http.Client
}

// NewNotifier creates a new notifier instance
func NewNotifier(cfg *config.SlackConfig, automationCfg *config.AutomationConfig) *Notifier {
	return &Notifier{
		cfg:        cfg,
		automation: automationCfg,
		httpClient: &http.Client{Timeout: deliveryTimeout},
	}
}

// Render produces the status-update message for a record's current status.
// The second return value is false when the status is suppressed.
func (n *Notifier) Render(record *models.JobRecord) (*Message, bool) {
	theme, ok := statusThemes[record.Status]
	if !ok {
		return nil, false
	}

	return &Message{
		Channel: n.cfg.Channel,
		Attachments: []Attachment{{
			Color:      theme.color,
			Fallback:   fmt.Sprintf(theme.template, record.JobID),
			MarkdownIn: []string{"text"},
			Text: fmt.Sprintf("Status update for job '%s' (<%s|Open Runbook>).",
				record.JobID, n.automation.RunbookURL(record.Runbook)),
			Fields: []Field{
				{Title: "Automation Account", Value: n.automation.Account, Short: true},
				{Title: "Runbook", Value: record.Runbook, Short: true},
				{Title: "Job ID", Value: record.JobID, Short: true},
				{Title: "Status", Value: record.Status.String(), Short: true},
			},
		}},
	}, true
}

// RenderQueued produces the in-channel acknowledgement for a freshly
// submitted job.
func (n *Notifier) RenderQueued(record *models.JobRecord, params []string) *CommandResponse {
	return &CommandResponse{
		ResponseType: ResponseTypeInChannel,
		Attachments: []Attachment{{
			Color:      ColorQueued,
			Fallback:   fmt.Sprintf("Automation runbook %s has been queued.", record.Runbook),
			MarkdownIn: []string{"text"},
			Text: fmt.Sprintf("Automation runbook *%s* has been queued (<%s|Open Runbook>).",
				record.Runbook, n.automation.RunbookURL(record.Runbook)),
			Fields: []Field{
				{Title: "Automation Account", Value: n.automation.Account, Short: true},
				{Title: "Runbook", Value: record.Runbook, Short: true},
				{Title: "Job ID", Value: record.JobID, Short: true},
				{Title: "Parameters", Value: fmt.Sprintf("%q", strings.Join(params, `", "`)), Short: true},
			},
		}},
	}
}

// RenderCommandError produces the in-channel failure reply for a slash
// command that could not be carried out.
func (n *Notifier) RenderCommandError(reason string) *CommandResponse {
	text := fmt.Sprintf("Unable to execute automation runbook: %s.", reason)
	return &CommandResponse{
		ResponseType: ResponseTypeInChannel,
		Attachments: []Attachment{{
			Color:    ColorFailure,
			Fallback: text,
			Text:     text,
		}},
	}
}

// Notify posts a message to the incoming webhook
func (n *Notifier) Notify(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.cfg.WebhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("webhook delivery rejected (status: %d): %s", resp.StatusCode, body)
	}
	return nil
}
