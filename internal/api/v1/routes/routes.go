// Package routes wires the v1 API routes
package v1

import (
	"github.com/gofiber/fiber/v2"

	"github.com/runslash/runslash/internal/api/v1/handlers"
)

// Register registers the v1 routes on the app
func Register(app *fiber.App, command *handlers.CommandHandler, jobs *handlers.JobsHandler) {
	v1Group := app.Group("/api/v1")

	v1Group.Post("/commands", command.HandleCommand)
	v1Group.Get("/jobs", jobs.ListJobs)
}
