package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/runslash/runslash/internal/services"
)

// jobOutput represents the filtered output for a tracked job
type jobOutput struct {
	JobID       string `json:"job_id"`
	Runbook     string `json:"runbook"`
	Status      string `json:"status"`
	RequestedBy string `json:"requested_by"`
	Channel     string `json:"channel"`
}

// jobListOutput represents the filtered output for a list of tracked jobs
type jobListOutput struct {
	Jobs []jobOutput `json:"jobs"`
}

// GetJobsCmd returns the jobs command tree
func GetJobsCmd() *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect tracked jobs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the jobs currently tracked in the queue",
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			offset, _ := cmd.Flags().GetInt("offset")

			query := url.Values{}
			if limit > 0 {
				query.Set("limit", strconv.Itoa(limit))
			}
			if offset > 0 {
				query.Set("offset", strconv.Itoa(offset))
			}

			endpoint := serverAddress + "/api/v1/jobs"
			if encoded := query.Encode(); encoded != "" {
				endpoint += "?" + encoded
			}

			client := &http.Client{Timeout: 30 * time.Second}
			resp, err := client.Get(endpoint)
			if err != nil {
				return fmt.Errorf("error fetching jobs: %w", err)
			}
			defer func() {
				_ = resp.Body.Close()
			}()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("error reading response: %w", err)
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned status %d: %s", resp.StatusCode, body)
			}

			var response struct {
				Data []services.TrackedJob `json:"data"`
			}
			if err := json.Unmarshal(body, &response); err != nil {
				return fmt.Errorf("error decoding response: %w", err)
			}

			output := jobListOutput{
				Jobs: make([]jobOutput, len(response.Data)),
			}
			for i, job := range response.Data {
				output.Jobs[i] = jobOutput{
					JobID:       job.Record.JobID,
					Runbook:     job.Record.Runbook,
					Status:      job.Record.Status.String(),
					RequestedBy: job.Record.RequestedBy,
					Channel:     job.Record.Channel,
				}
			}

			prettyJSON, err := json.MarshalIndent(output, "", "  ")
			if err != nil {
				return fmt.Errorf("error formatting response: %w", err)
			}
			fmt.Println(string(prettyJSON))
			return nil
		},
	}
	listCmd.Flags().IntP("limit", "l", 0, "Limit the number of jobs returned")
	listCmd.Flags().IntP("offset", "o", 0, "Offset into the job list")

	jobsCmd.AddCommand(listCmd)
	return jobsCmd
}
