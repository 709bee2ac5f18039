// Package config provides explicit configuration objects for the external
// collaborators. Each config is built from the environment once at startup
// and handed to component constructors.
package config

import (
	"fmt"
	"os"

	"github.com/runslash/runslash/internal/constants"
)

// AutomationConfig represents the configuration for the automation provider
type AutomationConfig struct {
	SubscriptionID string
	TenantID       string
	ClientID       string
	ClientSecret   string
	ResourceGroup  string
	Account        string
}

// NewAutomationConfig creates a new automation configuration from the environment
func NewAutomationConfig() (*AutomationConfig, error) {
	cfg := &AutomationConfig{
		SubscriptionID: os.Getenv(constants.EnvSubscriptionID),
		TenantID:       os.Getenv(constants.EnvTenantID),
		ClientID:       os.Getenv(constants.EnvClientID),
		ClientSecret:   os.Getenv(constants.EnvClientSecret),
		ResourceGroup:  os.Getenv(constants.EnvAutomationResourceGroup),
		Account:        os.Getenv(constants.EnvAutomationAccount),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the automation configuration
func (c *AutomationConfig) Validate() error {
	if c.SubscriptionID == "" {
		return fmt.Errorf("%s environment variable is not set", constants.EnvSubscriptionID)
	}
	if c.TenantID == "" {
		return fmt.Errorf("%s environment variable is not set", constants.EnvTenantID)
	}
	if c.ClientID == "" {
		return fmt.Errorf("%s environment variable is not set", constants.EnvClientID)
	}
	if c.ClientSecret == "" {
		return fmt.Errorf("%s environment variable is not set", constants.EnvClientSecret)
	}
	if c.ResourceGroup == "" {
		return fmt.Errorf("%s environment variable is not set", constants.EnvAutomationResourceGroup)
	}
	if c.Account == "" {
		return fmt.Errorf("%s environment variable is not set", constants.EnvAutomationAccount)
	}
	return nil
}

// RunbookURL returns the portal link for a runbook, used in chat messages
func (c *AutomationConfig) RunbookURL(runbook string) string {
	return fmt.Sprintf(
		"https://portal.azure.com/#resource/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Automation/automationAccounts/%s/runbooks/%s",
		c.SubscriptionID, c.ResourceGroup, c.Account, runbook,
	)
}
