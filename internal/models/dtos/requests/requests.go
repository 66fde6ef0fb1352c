package requests

// ComputeScoreRequest carries normalized metrics for a manual scoring call.
// When DriverID is set the resulting row is persisted for that driver.
type ComputeScoreRequest struct {
	DriverID         string  `json:"driver_id,omitempty"`
	AcceptanceRate   float64 `json:"acceptance_rate"`
	CancellationRate float64 `json:"cancellation_rate"`
	CompletionRate   float64 `json:"completion_rate"`
	FeedbackScore    float64 `json:"feedback_score"`
	TripVolumeIndex  float64 `json:"trip_volume_index"`
	IdleRatio        float64 `json:"idle_ratio"`
}

// UpdateContactsRequest patches a driver's channel addresses. Omitted
// fields are left untouched.
type UpdateContactsRequest struct {
	Phone          *string `json:"phone,omitempty"`
	TelegramChatID *string `json:"telegram_chat_id,omitempty"`
	WhatsAppNumber *string `json:"whatsapp_number,omitempty"`
	Email          *string `json:"email,omitempty"`
	Status         *string `json:"status,omitempty"`
}
