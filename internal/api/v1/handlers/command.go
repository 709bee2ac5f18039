package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/services"
)

// CommandHandler handles inbound slash commands
type CommandHandler struct {
	submission *services.Submission
	cfg        *config.SlackConfig
}

// NewCommandHandler creates a new command handler instance
func NewCommandHandler(submission *services.Submission, cfg *config.SlackConfig) *CommandHandler {
	return &CommandHandler{submission: submission, cfg: cfg}
}

// HandleCommand processes a form-encoded slash command. A bare "ping" answers
// Pong without touching the queue; anything else is submitted as a runbook
// job and answered with the in-channel acknowledgement.
func (h *CommandHandler) HandleCommand(c *fiber.Ctx) error {
	token := c.FormValue("token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.cfg.CommandToken)) != 1 {
		return c.Status(fiber.StatusUnauthorized).
			JSON(errUnauthorized("invalid command token"))
	}

	text := c.FormValue("text")
	if strings.TrimSpace(text) == "ping" {
		return c.SendString("Pong")
	}

	cmd := services.SlashCommand{
		Text:        text,
		ChannelName: c.FormValue("channel_name"),
		UserName:    c.FormValue("user_name"),
	}
	return c.JSON(h.submission.Submit(c.Context(), cmd))
}
