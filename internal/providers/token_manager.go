package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/models/dtos"
)

// tokens are refreshed this long before their reported expiry
const tokenRefreshMargin = 60 * time.Second

// TokenManager fetches and caches an OAuth client-credentials token for
// the telemetry provider. It tracks expiry itself and is safe for
// concurrent use; construct one per process and inject it.
type TokenManager struct {
	tokenURL     string
	clientID     string
	clientSecret string
	client       *http.Client

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenManager creates a token manager with its own credentials state
func NewTokenManager(tokenURL, clientID, clientSecret string, client *http.Client) *TokenManager {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenManager{
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		client:       client,
	}
}

// GetToken returns a valid access token, refreshing when the cached one is
// absent or within the refresh margin of expiry
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiresAt.Add(-tokenRefreshMargin)) {
		return m.token, nil
	}

	if m.clientID == "" || m.clientSecret == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidCredentials,
			Message: "telemetry client credentials are not configured",
		}
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", m.clientID)
	form.Set("client_secret", m.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeTokenRefreshFailed,
			Message: "failed to create token request",
			Err:     err,
		}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ProviderError{
			Code:    constants.ErrCodeTokenRefreshFailed,
			Message: fmt.Sprintf("token endpoint returned status %d", resp.StatusCode),
		}
	}

	var tokenResp dtos.TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeResponseDecodeError,
			Message: "failed to decode token response",
			Err:     err,
		}
	}

	if tokenResp.AccessToken == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeTokenRefreshFailed,
			Message: "token endpoint returned an empty access token",
		}
	}

	m.token = tokenResp.AccessToken
	m.expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return m.token, nil
}

// Invalidate drops the cached token so the next call re-fetches
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.expiresAt = time.Time{}
}
