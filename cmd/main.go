package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/runslash/runslash/internal/api/v1/handlers"
	v1 "github.com/runslash/runslash/internal/api/v1/routes"
	"github.com/runslash/runslash/internal/automation"
	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/db"
	"github.com/runslash/runslash/internal/db/repos"
	"github.com/runslash/runslash/internal/logger"
	"github.com/runslash/runslash/internal/services"
	"github.com/runslash/runslash/internal/slack"
)

func main() {
	// .env is optional outside local development
	_ = godotenv.Load()

	logger.Initialize()

	automationCfg, err := config.NewAutomationConfig()
	if err != nil {
		logger.Fatalf("Invalid automation configuration: %v", err)
	}
	slackCfg, err := config.NewSlackConfig()
	if err != nil {
		logger.Fatalf("Invalid Slack configuration: %v", err)
	}
	queueCfg := config.NewQueueConfig()
	if err := queueCfg.Validate(); err != nil {
		logger.Fatalf("Invalid queue configuration: %v", err)
	}

	dbPort, err := strconv.Atoi(config.GetEnv("DB_PORT", "5432"))
	if err != nil {
		logger.Fatalf("Invalid DB_PORT: %v", err)
	}
	database, err := db.New(db.Options{
		Host:     config.GetEnv("DB_HOST", db.DefaultHost),
		User:     config.GetEnv("DB_USER", db.DefaultUser),
		Password: config.GetEnv("DB_PASSWORD", db.DefaultPassword),
		DBName:   config.GetEnv("DB_NAME", db.DefaultDBName),
		Port:     dbPort,
	})
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	queue := repos.NewQueueRepository(database, queueCfg)

	client, err := automation.NewClient(automationCfg)
	if err != nil {
		logger.Fatalf("Failed to create automation client: %v", err)
	}
	notifier := slack.NewNotifier(slackCfg, automationCfg)

	submission := services.NewSubmission(queue, client, notifier)
	tracker := services.NewTracker(queue)
	poller := services.NewPoller(queue, client, notifier, queueCfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go services.LaunchPoller(ctx, &wg, poller, queueCfg.PollInterval)

	app := fiber.New(fiber.Config{
		ErrorHandler: customErrorHandler,
	})
	app.Use(fiberlogger.New())

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	v1.Register(app,
		handlers.NewCommandHandler(submission, slackCfg),
		handlers.NewJobsHandler(tracker),
	)

	addr := ":" + config.GetEnv("PORT", "8080")
	go func() {
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("Server stopped: %v", err)
		}
	}()
	logger.Infof("Listening on %s, tracking queue %s", addr, queueCfg.QueueName)

	<-ctx.Done()
	logger.Info("Shutting down...")
	if err := app.Shutdown(); err != nil {
		logger.Errorf("Server shutdown failed: %v", err)
	}
	wg.Wait()
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
