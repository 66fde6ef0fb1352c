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

// ChatProvider sends chat messages through the messaging gateway
// (Telegram and WhatsApp). Each send returns the provider message id on
// success or a typed error.
type ChatProvider struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewChatProvider creates a chat provider from CHAT_* environment variables
func NewChatProvider() *ChatProvider {
	baseURL := os.Getenv("CHAT_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://messaging.example.com/api/v2"
	}

	return &ChatProvider{
		BaseURL: baseURL,
		APIKey:  os.Getenv("CHAT_API_KEY"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewChatProviderWith creates a chat provider with explicit settings, for tests
func NewChatProviderWith(baseURL, apiKey string, client *http.Client) *ChatProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &ChatProvider{BaseURL: baseURL, APIKey: apiKey, client: client}
}

type chatSendRequest struct {
	Network   string `json:"network"` // "telegram" | "whatsapp"
	Recipient string `json:"recipient"`
	Body      string `json:"body"`
	Template  string `json:"template,omitempty"`
}

// SendTelegram sends a freeform message to a stored Telegram chat id
func (p *ChatProvider) SendTelegram(ctx context.Context, chatID, body string) (string, error) {
	return p.send(ctx, chatSendRequest{
		Network:   "telegram",
		Recipient: chatID,
		Body:      body,
	})
}

// SendWhatsApp sends a templated message to a WhatsApp number. The
// gateway requires a registered template name for business-initiated
// messages; body fills the template's text slot.
func (p *ChatProvider) SendWhatsApp(ctx context.Context, number, body string) (string, error) {
	return p.send(ctx, chatSendRequest{
		Network:   "whatsapp",
		Recipient: number,
		Body:      body,
		Template:  "driver_performance_alert",
	})
}

func (p *ChatProvider) send(ctx context.Context, payload chatSendRequest) (string, error) {
	if p.APIKey == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidCredentials,
			Message: "CHAT_API_KEY is not set",
		}
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "failed to marshal message payload",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/messages", bytes.NewReader(payloadBytes))
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
			Code:    constants.ErrCodeMessageRejected,
			Message: fmt.Sprintf("messaging gateway returned status %d", resp.StatusCode),
			Details: payload.Network,
		}
	}

	var result dtos.ChatMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeResponseDecodeError,
			Message: "failed to decode send response",
			Err:     err,
		}
	}

	return result.MessageID, nil
}
