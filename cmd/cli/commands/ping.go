package commands

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/runslash/runslash/internal/constants"
)

// GetPingCmd returns the ping command
func GetPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Send a keep-warm ping through the command endpoint",
		RunE: func(_ *cobra.Command, _ []string) error {
			form := url.Values{
				"token": {os.Getenv(constants.EnvSlackCommandToken)},
				"text":  {"ping"},
			}

			client := &http.Client{Timeout: 30 * time.Second}
			resp, err := client.PostForm(serverAddress+"/api/v1/commands", form)
			if err != nil {
				return fmt.Errorf("ping failed: %w", err)
			}
			defer func() {
				_ = resp.Body.Close()
			}()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("error reading response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("ping rejected (status %d): %s", resp.StatusCode, body)
			}

			fmt.Println(string(body))
			return nil
		},
	}
}
