package automation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/runslash/runslash/internal/config"
)

const (
	defaultLoginURL = "https://login.microsoftonline.com"
	tokenResource   = "https://management.azure.com/"

	// Refresh slightly before the advertised expiry to avoid racing it.
	tokenExpirySkew = time.Minute
)

// tokenSource acquires and caches a management API access token using the
// client-credentials grant.
type tokenSource struct {
	cfg        *config.AutomationConfig
	httpClient *http.Client
	loginURL   string

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

func newTokenSource(cfg *config.AutomationConfig, httpClient *http.Client) *tokenSource {
	return &tokenSource{
		cfg:        cfg,
		httpClient: httpClient,
		loginURL:   defaultLoginURL,
	}
}

// Token returns a valid access token, fetching a new one if the cached token
// is missing or about to expire.
func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Now().Before(t.expiresAt) {
		return t.token, nil
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {t.cfg.ClientID},
		"client_secret": {t.cfg.ClientSecret},
		"resource":      {tokenResource},
	}

	endpoint := fmt.Sprintf("%s/%s/oauth2/token", t.loginURL, t.cfg.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token request rejected (status: %d): %s", resp.StatusCode, data)
	}

	var body struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   string `json:"expires_in"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if body.AccessToken == "" {
		return "", fmt.Errorf("token response contained no access token")
	}

	expiresIn, err := strconv.Atoi(body.ExpiresIn)
	if err != nil || expiresIn <= 0 {
		expiresIn = 3600
	}

	t.token = body.AccessToken
	t.expiresAt = time.Now().Add(time.Duration(expiresIn)*time.Second - tokenExpirySkew)
	return t.token, nil
}
