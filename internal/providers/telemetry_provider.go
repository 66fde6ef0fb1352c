package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/models/dtos"
)

// TelemetryProvider is the REST client for the external fleet-telemetry
// API: driver/status listing and dimension-filtered analytics queries.
type TelemetryProvider struct {
	BaseURL string
	OrgID   string
	tokens  *TokenManager
	client  *http.Client
}

// NewTelemetryProvider creates a provider reading its endpoints from
// TELEMETRY_* environment variables
func NewTelemetryProvider(tokens *TokenManager) *TelemetryProvider {
	baseURL := os.Getenv("TELEMETRY_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.fleet-telemetry.example.com/v1"
	}

	return &TelemetryProvider{
		BaseURL: baseURL,
		OrgID:   os.Getenv("TELEMETRY_ORG_ID"),
		tokens:  tokens,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewTelemetryProviderWith creates a provider with explicit settings, for tests
func NewTelemetryProviderWith(baseURL, orgID string, tokens *TokenManager, client *http.Client) *TelemetryProvider {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &TelemetryProvider{BaseURL: baseURL, OrgID: orgID, tokens: tokens, client: client}
}

// GetProviderType returns the provider type identifier
func (p *TelemetryProvider) GetProviderType() string {
	return "fleet_telemetry"
}

// ListDrivers fetches one page of the provider's current driver/status
// list. The caller pages with offset until a short page comes back.
func (p *TelemetryProvider) ListDrivers(ctx context.Context, offset, limit int) (*dtos.DriverListResponse, error) {
	if p.OrgID == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeConfigMissing,
			Message: "TELEMETRY_ORG_ID is not set",
		}
	}
	if limit <= 0 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/organizations/%s/drivers?offset=%d&limit=%d", p.OrgID, offset, limit)

	var result dtos.DriverListResponse
	if err := p.doGET(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// FetchAnalytics queries aggregated per-driver counters for a time range.
// Callers batch driver ids to respect provider limits.
func (p *TelemetryProvider) FetchAnalytics(ctx context.Context, driverIDs []string, start, end time.Time) (*dtos.AnalyticsResponse, error) {
	if p.OrgID == "" {
		return nil, &ProviderError{
			Code:    constants.ErrCodeConfigMissing,
			Message: "TELEMETRY_ORG_ID is not set",
		}
	}
	if len(driverIDs) == 0 {
		return &dtos.AnalyticsResponse{}, nil
	}

	query := dtos.AnalyticsQuery{
		DriverIDs:      driverIDs,
		StartTimestamp: start.UnixMilli(),
		EndTimestamp:   end.UnixMilli(),
		Dimensions:     []string{"hours_online", "hours_on_trip", "trip_count", "earnings"},
	}

	endpoint := fmt.Sprintf("/organizations/%s/analytics/query", p.OrgID)

	var result dtos.AnalyticsResponse
	if err := p.doPost(ctx, endpoint, query, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (p *TelemetryProvider) doGET(ctx context.Context, endpoint string, result interface{}) error {
	token, err := p.tokens.GetToken(ctx)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.BaseURL+endpoint, nil)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "failed to create request",
			Err:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if err := p.handleHTTPError(resp, endpoint); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeResponseDecodeError,
			Message: "failed to decode response",
			Err:     err,
		}
	}
	return nil
}

func (p *TelemetryProvider) doPost(ctx context.Context, endpoint string, payload interface{}, result interface{}) error {
	token, err := p.tokens.GetToken(ctx)
	if err != nil {
		return err
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "failed to marshal request body",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+endpoint, bytes.NewReader(payloadBytes))
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "failed to create request",
			Err:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if err := p.handleHTTPError(resp, endpoint); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &ProviderError{
			Code:    constants.ErrCodeResponseDecodeError,
			Message: "failed to decode response",
			Err:     err,
		}
	}
	return nil
}

func (p *TelemetryProvider) handleHTTPError(resp *http.Response, endpoint string) error {
	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		// Token may have been revoked server-side; drop it so the next
		// call re-authenticates.
		p.tokens.Invalidate()
		return &ProviderError{
			Code:    constants.ErrCodeAuthenticationFailed,
			Message: constants.GetErrorMessage(constants.ErrCodeAuthenticationFailed),
			Details: endpoint,
		}
	case http.StatusNotFound:
		return &ProviderError{
			Code:    constants.ErrCodeResourceNotFound,
			Message: constants.GetErrorMessage(constants.ErrCodeResourceNotFound),
			Details: endpoint,
		}
	case http.StatusTooManyRequests:
		return &ProviderError{
			Code:    constants.ErrCodeRateLimited,
			Message: constants.GetErrorMessage(constants.ErrCodeRateLimited),
			Details: endpoint,
		}
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &ProviderError{
			Code:    constants.ErrCodeUnexpectedStatus,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
			Details: string(body),
		}
	}
}
