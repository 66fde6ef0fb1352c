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
)

// EmailProvider sends transactional mail through the mail gateway.
type EmailProvider struct {
	BaseURL  string
	APIKey   string
	FromAddr string
	client   *http.Client
}

// NewEmailProvider creates an email provider from EMAIL_* environment variables
func NewEmailProvider() *EmailProvider {
	baseURL := os.Getenv("EMAIL_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://mail.example.com/api/v1"
	}
	from := os.Getenv("EMAIL_FROM_ADDRESS")
	if from == "" {
		from = "alerts@fleetpulse.example.com"
	}

	return &EmailProvider{
		BaseURL:  baseURL,
		APIKey:   os.Getenv("EMAIL_API_KEY"),
		FromAddr: from,
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewEmailProviderWith creates an email provider with explicit settings, for tests
func NewEmailProviderWith(baseURL, apiKey, from string, client *http.Client) *EmailProvider {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &EmailProvider{BaseURL: baseURL, APIKey: apiKey, FromAddr: from, client: client}
}

type emailSendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type emailSendResponse struct {
	MessageID string `json:"message_id"`
}

// Send delivers one message and returns the provider message id
func (p *EmailProvider) Send(ctx context.Context, to, subject, body string) (string, error) {
	if p.APIKey == "" {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidCredentials,
			Message: "EMAIL_API_KEY is not set",
		}
	}

	payloadBytes, err := json.Marshal(emailSendRequest{
		From:    p.FromAddr,
		To:      to,
		Subject: subject,
		Body:    body,
	})
	if err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "failed to marshal mail payload",
			Err:     err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.BaseURL+"/send", bytes.NewReader(payloadBytes))
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

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", &ProviderError{
			Code:    constants.ErrCodeMessageRejected,
			Message: fmt.Sprintf("mail gateway returned status %d", resp.StatusCode),
		}
	}

	var result emailSendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &ProviderError{
			Code:    constants.ErrCodeResponseDecodeError,
			Message: "failed to decode send response",
			Err:     err,
		}
	}

	return result.MessageID, nil
}
