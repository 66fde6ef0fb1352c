package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"fleetpulse/backend/internal/constants"
	"fleetpulse/backend/internal/models/dtos"
)

// VoiceProvider initiates outbound calls through the telephony gateway
// with a templated prompt and dynamic variables.
type VoiceProvider struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewVoiceProvider creates a voice provider from VOICE_* environment variables
func NewVoiceProvider() *VoiceProvider {
	baseURL := os.Getenv("VOICE_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://voice.example.com/api/v1"
	}

	return &VoiceProvider{
		BaseURL: baseURL,
		APIKey:  os.Getenv("VOICE_API_KEY"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewVoiceProviderWith creates a voice provider with explicit settings, for tests
func NewVoiceProviderWith(baseURL, apiKey string, client *http.Client) *VoiceProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &VoiceProvider{BaseURL: baseURL, APIKey: apiKey, client: client}
}

type voiceCallRequest struct {
	Phone     string            `json:"phone"`
	PromptID  string            `json:"prompt_id"`
	Variables map[string]string `json:"variables,omitempty"`
}

// InitiateCall starts an outbound call and returns the provider call id
func (p *VoiceProvider) InitiateCall(ctx context.Context, phone, promptID string, variables map[string]string) (string, error) {
	if p.APIKey == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidCredentials,
			Message: "VOICE_API_KEY is not set",
		}
	}

	payload := voiceCallRequest{
		Phone:     phone,
		PromptID:  promptID,
		Variables: variables,
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "failed to marshal call payload",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/calls", bytes.NewReader(payloadBytes))
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: "failed to create request",
			Err:     err,
		}
	}
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeNetworkError,
			Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", &ProviderError{
			Code:    constants.ErrCodeCallInitFailed,
			Message: fmt.Sprintf("voice gateway returned status %d", resp.StatusCode),
		}
	}

	var result dtos.VoiceCallResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeResponseDecodeError,
			Message: "failed to decode call response",
			Err:     err,
		}
	}

	return result.CallID, nil
}
