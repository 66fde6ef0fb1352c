package constants

// Provider Error Codes
// These constants define specific error scenarios for external providers
// (telemetry API, chat messaging, voice calls).

// Credential-related errors
const (
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeTokenRefreshFailed   = "TOKEN_REFRESH_FAILED"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeNetworkError         = "NETWORK_ERROR"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
)

// Telemetry data errors
const (
	ErrCodeDriverListFailed    = "DRIVER_LIST_FAILED"
	ErrCodeAnalyticsFailed     = "ANALYTICS_FAILED"
	ErrCodeInvalidDataFormat   = "INVALID_DATA_FORMAT"
	ErrCodeDataOutOfRange      = "DATA_OUT_OF_RANGE"
	ErrCodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	ErrCodeUnexpectedStatus    = "UNEXPECTED_STATUS"
	ErrCodeResponseDecodeError = "RESPONSE_DECODE_ERROR"
)

// Channel delivery errors
const (
	ErrCodeMissingContact   = "MISSING_CONTACT"
	ErrCodeMessageRejected  = "MESSAGE_REJECTED"
	ErrCodeCallInitFailed   = "CALL_INIT_FAILED"
	ErrCodeChannelDisabled  = "CHANNEL_DISABLED"
	ErrCodeUnknownChannel   = "UNKNOWN_CHANNEL"
	ErrCodeDeliveryTimedOut = "DELIVERY_TIMED_OUT"
)

// Configuration errors
const (
	ErrCodeConfigMissing   = "CONFIG_MISSING"
	ErrCodeConfigMalformed = "CONFIG_MALFORMED"
)

var ProviderErrorMessages = map[string]string{
	ErrCodeInvalidCredentials:   "The provider credentials are invalid or have been revoked",
	ErrCodeTokenRefreshFailed:   "Failed to obtain an access token from the telemetry provider",
	ErrCodeRateLimited:          "Rate limit exceeded. Please try again later",
	ErrCodeNetworkError:         "Unable to reach the provider. Please check connectivity",
	ErrCodeAuthenticationFailed: "Authentication with the provider failed",

	ErrCodeDriverListFailed:    "The telemetry provider driver listing request failed",
	ErrCodeAnalyticsFailed:     "The telemetry provider analytics query failed",
	ErrCodeInvalidDataFormat:   "The data format is invalid",
	ErrCodeDataOutOfRange:      "The data value is outside the acceptable range",
	ErrCodeResourceNotFound:    "The requested resource was not found",
	ErrCodeUnexpectedStatus:    "The provider returned an unexpected HTTP status",
	ErrCodeResponseDecodeError: "Unable to decode the provider response",

	ErrCodeMissingContact:   "The driver has no contact address on file for this channel",
	ErrCodeMessageRejected:  "The messaging provider rejected the message",
	ErrCodeCallInitFailed:   "The voice provider could not initiate the call",
	ErrCodeChannelDisabled:  "This channel is disabled by the alerting policy",
	ErrCodeUnknownChannel:   "The requested channel is not supported",
	ErrCodeDeliveryTimedOut: "The channel provider did not respond in time",

	ErrCodeConfigMissing:   "A required configuration setting is missing",
	ErrCodeConfigMalformed: "The configuration structure is invalid",
}

// GetErrorMessage returns the human-readable message for an error code
func GetErrorMessage(code string) string {
	if msg, exists := ProviderErrorMessages[code]; exists {
		return msg
	}
	return "An unknown error occurred"
}
