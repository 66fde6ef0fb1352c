package dtos

// DTOs for the external fleet-telemetry provider API.

// TokenResponse is the OAuth client-credentials token grant response
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"` // seconds
	Scope       string `json:"scope,omitempty"`
}

// ProviderDriver is one driver record as reported by the provider
type ProviderDriver struct {
	DriverID    string `json:"driver_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Email       string `json:"email,omitempty"`
	Status      string `json:"status"`
}

// DriverListResponse is a paginated driver/status listing
type DriverListResponse struct {
	Drivers []ProviderDriver `json:"drivers"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

// AnalyticsQuery describes a dimension-filtered analytics request
type AnalyticsQuery struct {
	DriverIDs      []string `json:"driver_ids"`
	StartTimestamp int64    `json:"start_timestamp"` // unix millis
	EndTimestamp   int64    `json:"end_timestamp"`   // unix millis
	Dimensions     []string `json:"dimensions"`
}

// AnalyticsRow is one driver's aggregated counters for the query window
type AnalyticsRow struct {
	DriverID    string  `json:"driver_id"`
	HoursOnline float64 `json:"hours_online"`
	HoursOnTrip float64 `json:"hours_on_trip"`
	TripCount   int     `json:"trip_count"`
	Earnings    float64 `json:"earnings"`
}

// AnalyticsResponse is the provider's analytics query result
type AnalyticsResponse struct {
	Rows []AnalyticsRow `json:"rows"`
}

// ChatMessageResponse is the messaging provider's send acknowledgment
type ChatMessageResponse struct {
	MessageID      string `json:"message_id"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// VoiceCallResponse is the voice provider's call-initiation acknowledgment
type VoiceCallResponse struct {
	CallID string `json:"call_id"`
	Status string `json:"status"`
}
