package repos

import (
	"context"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/db/models"
)

// QueueRepositoryTestSuite provides a base test suite for queue tests
type QueueRepositoryTestSuite struct {
	suite.Suite
	db    *gorm.DB
	ctx   context.Context
	cfg   *config.QueueConfig
	queue *QueueRepository
}

func (s *QueueRepositoryTestSuite) SetupTest() {
	// Create new in-memory database with JSON support
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
	s.queue = NewQueueRepository(s.db, s.cfg)
	s.ctx = context.Background()
}

func (s *QueueRepositoryTestSuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	if err == nil && sqlDB != nil {
		_ = sqlDB.Close()
	}
}

// Helper methods for creating test data

func (s *QueueRepositoryTestSuite) testRecord(jobID string) *models.JobRecord {
	return &models.JobRecord{
		JobID:       jobID,
		Runbook:     "restart-vm",
		Channel:     "#ops",
		RequestedBy: "sandrino",
		PostedAt:    time.Now().UTC(),
		Status:      models.JobStatusNew,
	}
}

func (s *QueueRepositoryTestSuite) enqueueTestRecord(jobID string) *models.QueueMessage {
	msg, err := s.queue.Enqueue(s.ctx, s.testRecord(jobID))
	s.Require().NoError(err)
	return msg
}

// rewindVisibility makes a message visible again without waiting for its
// window to elapse.
func (s *QueueRepositoryTestSuite) rewindVisibility(messageID string) {
	err := s.db.Model(&models.QueueMessage{}).
		Where("message_id = ?", messageID).
		Update(models.MessageVisibleAtField, time.Now().UTC().Add(-time.Minute)).Error
	s.Require().NoError(err)
}
