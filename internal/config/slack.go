package config

import (
	"fmt"
	"os"

	"github.com/runslash/runslash/internal/constants"
)

// SlackConfig represents the configuration for the Slack integration
type SlackConfig struct {
	WebhookURL   string
	Channel      string
	CommandToken string
}

// NewSlackConfig creates a new Slack configuration from the environment
func NewSlackConfig() (*SlackConfig, error) {
	cfg := &SlackConfig{
		WebhookURL:   os.Getenv(constants.EnvSlackWebhookURL),
		Channel:      os.Getenv(constants.EnvSlackChannel),
		CommandToken: os.Getenv(constants.EnvSlackCommandToken),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the Slack configuration. The channel is optional: when
// unset, updates go to the webhook's default channel.
func (c *SlackConfig) Validate() error {
	if c.WebhookURL == "" {
		return fmt.Errorf("%s environment variable is not set", constants.EnvSlackWebhookURL)
	}
	if c.CommandToken == "" {
		return fmt.Errorf("%s environment variable is not set", constants.EnvSlackCommandToken)
	}
	return nil
}
