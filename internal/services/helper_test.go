package services

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/runslash/runslash/internal/automation"
	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/db/models"
	"github.com/runslash/runslash/internal/db/repos"
	"github.com/runslash/runslash/internal/slack"
)

// ServiceTestSuite provides a base test suite with an in-memory queue and
// fake collaborators
type ServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	ctx      context.Context
	cfg      *config.QueueConfig
	queue    *repos.QueueRepository
	fetcher  *fakeFetcher
	notifier *fakeNotifier
	poller   *Poller
}

func (s *ServiceTestSuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_json=1"), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(s.T(), err, "Failed to create in-memory database")

	err = db.AutoMigrate(&models.QueueMessage{})
	require.NoError(s.T(), err, "Failed to run database migrations")

	s.db = db
	s.cfg = &config.QueueConfig{
		QueueName:        "runslash-jobs-test",
		BatchSize:        15,
		VisibilityWindow: 5 * time.Second,
		MessageTTL:       240 * time.Minute,
	}
	s.queue = repos.NewQueueRepository(s.db, s.cfg)
	s.fetcher = &fakeFetcher{
		states: make(map[string]*automation.JobState),
		errs:   make(map[string]error),
	}
	s.notifier = newFakeNotifier()
	s.poller = NewPoller(s.queue, s.fetcher, s.notifier, s.cfg)
	s.ctx = context.Background()
}

func (s *ServiceTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

func (s *ServiceTestSuite) enqueueRecord(jobID string, status models.JobStatus, provisioningState string) *models.QueueMessage {
	msg, err := s.queue.Enqueue(s.ctx, &models.JobRecord{
		JobID:             jobID,
		Runbook:           "restart-vm",
		Channel:           "#ops",
		RequestedBy:       "sandrino",
		PostedAt:          time.Now().UTC(),
		Status:            status,
		ProvisioningState: provisioningState,
	})
	s.Require().NoError(err)
	return msg
}

func (s *ServiceTestSuite) storedRecord(messageID string) *models.JobRecord {
	var stored models.QueueMessage
	s.Require().NoError(s.db.Where("message_id = ?", messageID).First(&stored).Error)
	record, err := stored.Record()
	s.Require().NoError(err)
	return record
}

func (s *ServiceTestSuite) queueLength() int64 {
	var count int64
	s.Require().NoError(s.db.Model(&models.QueueMessage{}).Count(&count).Error)
	return count
}

// fakeFetcher serves canned provider states per job id
type fakeFetcher struct {
	mu     sync.Mutex
	states map[string]*automation.JobState
	errs   map[string]error
	calls  int
}

func (f *fakeFetcher) GetJob(_ context.Context, jobID string) (*automation.JobState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[jobID]; ok {
		return nil, err
	}
	if state, ok := f.states[jobID]; ok {
		return state, nil
	}
	return nil, &automation.APIError{Code: "JobNotFound", Message: "unknown job", Status: 404}
}

// fakeNotifier delegates rendering to the real notifier so suppression rules
// stay honest, and captures what would have been delivered
type fakeNotifier struct {
	mu        sync.Mutex
	real      *slack.Notifier
	rendered  []models.JobStatus
	delivered []*slack.Message
	notifyErr error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{
		real: slack.NewNotifier(
			&config.SlackConfig{
				WebhookURL:   "http://example.invalid/webhook",
				Channel:      "#ops",
				CommandToken: "token",
			},
			&config.AutomationConfig{
				SubscriptionID: "sub-1",
				TenantID:       "tenant-1",
				ClientID:       "client-1",
				ClientSecret:   "secret",
				ResourceGroup:  "rg-1",
				Account:        "automation-1",
			},
		),
	}
}

func (f *fakeNotifier) Render(record *models.JobRecord) (*slack.Message, bool) {
	f.mu.Lock()
	f.rendered = append(f.rendered, record.Status)
	f.mu.Unlock()
	return f.real.Render(record)
}

func (f *fakeNotifier) Notify(_ context.Context, msg *slack.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.notifyErr != nil {
		return f.notifyErr
	}
	f.delivered = append(f.delivered, msg)
	return nil
}
