// Package commands contains the operator CLI commands
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/runslash/runslash/internal/constants"
)

// flag names
const (
	flagServerAddress = "server-address"
)

// DefaultServerAddress is the API address used when neither the flag nor the
// environment provides one
const DefaultServerAddress = "http://localhost:8080"

// serverAddress holds the target API server address. Flag parsing sets this.
var serverAddress string

func init() {
	RootCmd.PersistentFlags().StringVarP(&serverAddress, flagServerAddress, "s", DefaultServerAddress,
		"Address of the runslash API server (env: "+constants.EnvServerAddress+")")

	RootCmd.AddCommand(GetJobsCmd())
	RootCmd.AddCommand(GetPingCmd())
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "runslash",
	Short: "runslash CLI - inspect and exercise the runslash relay",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		// Flag wins; otherwise fall back to the environment.
		if !cmd.Flags().Changed(flagServerAddress) {
			if envAddr := os.Getenv(constants.EnvServerAddress); envAddr != "" {
				serverAddress = envAddr
			}
		}
	},
}
