package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/runslash/runslash/internal/db/models"
	"github.com/runslash/runslash/internal/services"
)

// JobsHandler handles HTTP requests for the tracked-jobs view
type JobsHandler struct {
	tracker *services.Tracker
}

// NewJobsHandler creates a new jobs handler instance
func NewJobsHandler(tracker *services.Tracker) *JobsHandler {
	return &JobsHandler{tracker: tracker}
}

// ListJobs handles the request to list the currently tracked jobs
func (h *JobsHandler) ListJobs(c *fiber.Ctx) error {
	var (
		limit  = c.QueryInt("limit", 0)
		offset = c.QueryInt("offset", 0)
	)
	if limit < 0 || offset < 0 {
		return c.Status(fiber.StatusBadRequest).
			JSON(errInvalidInput("limit and offset must not be negative"))
	}

	jobs, err := h.tracker.List(c.Context(), &models.ListOptions{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(errServer(err.Error()))
	}

	return c.JSON(Response{
		Slug: SuccessSlug,
		Data: jobs,
	})
}
