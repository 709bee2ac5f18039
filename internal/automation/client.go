// Package automation provides a client for the cloud automation provider's
// management API: job submission and job status queries.
package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/runslash/runslash/internal/config"
	"github.com/runslash/runslash/internal/db/models"
	"github.com/runslash/runslash/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 3
	retryDelay     = 2 * time.Second

	defaultBaseURL = "https://management.azure.com"
	apiVersion     = "2015-10-31"
)

// APIError represents a management API error
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface for APIError
func (e *APIError) Error() string {
	return fmt.Sprintf("automation API error: %s - %s (status: %d)", e.Code, e.Message, e.Status)
}

// IsNotFound returns true if the error is a not found error
func (e *APIError) IsNotFound() bool {
	return e.Status == http.StatusNotFound
}

// IsRateLimited returns true if the error is a rate limit error
func (e *APIError) IsRateLimited() bool {
	return e.Status == http.StatusTooManyRequests
}

// IsServerError returns true if the error is a server error
func (e *APIError) IsServerError() bool {
	return e.Status >= http.StatusInternalServerError
}

// IsNotFound reports whether err is an APIError for an unknown job
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// JobState is the provider's view of a job
type JobState struct {
	Status            models.JobStatus
	ProvisioningState string
}

// Client represents an automation management API client
type Client struct {
	httpClient *http.Client
	cfg        *config.AutomationConfig
	baseURL    string
	tokens     *tokenSource
}

// NewClient creates a new automation API client
func NewClient(cfg *config.AutomationConfig) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	httpClient := &http.Client{
		Timeout: defaultTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}

	return &Client{
		httpClient: httpClient,
		cfg:        cfg,
		baseURL:    defaultBaseURL,
		tokens:     newTokenSource(cfg, httpClient),
	}, nil
}

// GetJob fetches the current state of a job. Returns an APIError satisfying
// IsNotFound when the provider does not know the job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*JobState, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, c.jobPath(jobID), nil)
	if err != nil {
		return nil, err
	}

	var body struct {
		Properties struct {
			Status            string `json:"status"`
			ProvisioningState string `json:"provisioningState"`
		} `json:"properties"`
	}
	if err := c.parseResponse(resp, &body); err != nil {
		return nil, err
	}

	return &JobState{
		Status:            models.JobStatus(body.Properties.Status),
		ProvisioningState: body.Properties.ProvisioningState,
	}, nil
}

// CreateJob submits a runbook job under the given job id
func (c *Client) CreateJob(ctx context.Context, jobID, runbook string, params []string, requestedBy string) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal runbook parameters: %w", err)
	}

	request := map[string]interface{}{
		"properties": map[string]interface{}{
			"runbook": map[string]string{
				"name": runbook,
			},
			"parameters": map[string]string{
				"context": string(paramsJSON),
				"MicrosoftApplicationManagementStartedBy":   `"runslash"`,
				"MicrosoftApplicationManagementRequestedBy": fmt.Sprintf("%q", requestedBy),
			},
		},
		"tags": map[string]string{},
	}

	resp, err := c.doRequest(ctx, http.MethodPut, c.jobPath(jobID), request)
	if err != nil {
		return err
	}
	return c.parseResponse(resp, nil)
}

func (c *Client) jobPath(jobID string) string {
	return fmt.Sprintf(
		"/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Automation/automationAccounts/%s/jobs/%s?api-version=%s",
		c.cfg.SubscriptionID, c.cfg.ResourceGroup, c.cfg.Account, jobID, apiVersion,
	)
}

// doRequest performs an HTTP request with retries
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyData []byte
	var err error

	if body != nil {
		bodyData, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire access token: %w", err)
	}

	url := c.baseURL + path
	var resp *http.Response

	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger.Debugf("Automation API request: attempt=%d, method=%s, url=%s", attempt, method, url)

		var req *http.Request
		if body != nil {
			req, err = http.NewRequestWithContext(ctx, method, url, bytes.NewBuffer(bodyData))
		} else {
			req, err = http.NewRequestWithContext(ctx, method, url, nil)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err = c.httpClient.Do(req)
		if err != nil {
			if attempt == maxRetries {
				return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
			}
			time.Sleep(retryDelay)
			continue
		}

		if !shouldRetry(resp.StatusCode) {
			break
		}

		logger.Warnf("Retrying automation API request: attempt=%d, status_code=%d", attempt, resp.StatusCode)
		_ = resp.Body.Close()
		if attempt < maxRetries {
			time.Sleep(retryDelay)
		}
	}

	return resp, nil
}

// parseResponse decodes a successful response into v, or converts an error
// response into an APIError. v may be nil when the body is not needed.
func (c *Client) parseResponse(resp *http.Response, v interface{}) error {
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Status: resp.StatusCode}
		var armError struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		if err := json.Unmarshal(data, &armError); err == nil && armError.Error.Code != "" {
			apiErr.Code = armError.Error.Code
			apiErr.Message = armError.Error.Message
		} else {
			apiErr.Code = http.StatusText(resp.StatusCode)
			apiErr.Message = string(data)
		}
		return apiErr
	}

	if v == nil {
		return nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func shouldRetry(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
