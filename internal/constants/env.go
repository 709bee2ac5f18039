// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvSubscriptionID is the environment variable containing the cloud subscription ID
	EnvSubscriptionID = "SUBSCRIPTION_ID"

	// EnvTenantID is the environment variable containing the directory tenant ID
	EnvTenantID = "TENANT_ID"

	// EnvClientID is the environment variable containing the service principal client ID
	EnvClientID = "CLIENT_ID"

	// EnvClientSecret is the environment variable containing the service principal client secret
	EnvClientSecret = "CLIENT_SECRET"

	// EnvAutomationResourceGroup is the environment variable containing the resource group of the automation account
	EnvAutomationResourceGroup = "AUTOMATION_RESOURCE_GROUP"

	// EnvAutomationAccount is the environment variable containing the automation account name
	EnvAutomationAccount = "AUTOMATION_ACCOUNT"

	// EnvSlackWebhookURL is the environment variable containing the Slack incoming webhook URL
	EnvSlackWebhookURL = "SLACK_INCOMING_WEBHOOK_URL"

	// EnvSlackChannel is the environment variable containing the Slack channel for status updates
	EnvSlackChannel = "SLACK_CHANNEL"

	// EnvSlackCommandToken is the environment variable containing the slash command verification token
	EnvSlackCommandToken = "SLACK_SLASHCMD_TOKEN"

	// EnvServerAddress is the environment variable containing the API server address used by the CLI
	EnvServerAddress = "RUNSLASH_SERVER_ADDRESS"
)
