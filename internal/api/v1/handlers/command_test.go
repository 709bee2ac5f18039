package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/db/models"
	"github.com/runslash/runslash/internal/db/repos"
	"github.com/runslash/runslash/internal/services"
	"github.com/runslash/runslash/internal/slack"
)

type noopSubmitter struct{}

func (noopSubmitter) CreateJob(_ context.Context, _, _ string, _ []string, _ string) error {
	return nil
}

func newTestApp(t *testing.T) (*fiber.App, *repos.QueueRepository) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.QueueMessage{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	queueCfg := &config.QueueConfig{
		QueueName:        "runslash-jobs-test",
		BatchSize:        15,
		VisibilityWindow: 5 * time.Second,
		MessageTTL:       240 * time.Minute,
	}
	slackCfg := &config.SlackConfig{
		WebhookURL:   "http://example.invalid/webhook",
		Channel:      "#ops",
		CommandToken: "secret-token",
	}
	automationCfg := &config.AutomationConfig{
		SubscriptionID: "sub-1",
		TenantID:       "tenant-1",
		ClientID:       "client-1",
		ClientSecret:   "secret",
		ResourceGroup:  "rg-1",
		Account:        "automation-1",
	}

	queue := repos.NewQueueRepository(db, queueCfg)
	notifier := slack.NewNotifier(slackCfg, automationCfg)
	submission := services.NewSubmission(queue, noopSubmitter{}, notifier)
	tracker := services.NewTracker(queue)

	app := fiber.New()
	command := NewCommandHandler(submission, slackCfg)
	jobs := NewJobsHandler(tracker)

	v1 := app.Group("/api/v1")
	v1.Post("/commands", command.HandleCommand)
	v1.Get("/jobs", jobs.ListJobs)

	return app, queue
}

func postCommand(t *testing.T, app *fiber.App, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/commands", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestHandleCommandRejectsBadToken(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postCommand(t, app, url.Values{
		"token": {"wrong"},
		"text":  {"restart-vm"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandleCommandPing(t *testing.T) {
	app, _ := newTestApp(t)

	resp := postCommand(t, app, url.Values{
		"token": {"secret-token"},
		"text":  {"ping"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "Pong", string(body))
}

func TestHandleCommandSubmitsRunbook(t *testing.T) {
	app, queue := newTestApp(t)

	resp := postCommand(t, app, url.Values{
		"token":        {"secret-token"},
		"text":         {"restart-vm vm-1"},
		"channel_name": {"ops"},
		"user_name":    {"sandrino"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply slack.CommandResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, slack.ResponseTypeInChannel, reply.ResponseType)
	require.Len(t, reply.Attachments, 1)
	assert.Equal(t, slack.ColorQueued, reply.Attachments[0].Color)

	messages, err := queue.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, messages, 1)
}

func TestListJobs(t *testing.T) {
	app, queue := newTestApp(t)

	_, err := queue.Enqueue(context.Background(), &models.JobRecord{
		JobID:       "abc",
		Runbook:     "restart-vm",
		Channel:     "#ops",
		RequestedBy: "sandrino",
		PostedAt:    time.Now().UTC(),
		Status:      models.JobStatusNew,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var response struct {
		Slug Slug                  `json:"slug"`
		Data []services.TrackedJob `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&response))
	assert.Equal(t, SuccessSlug, response.Slug)
	require.Len(t, response.Data, 1)
	assert.Equal(t, "abc", response.Data[0].Record.JobID)
}

func TestListJobsRejectsNegativePagination(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/jobs?limit=-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
