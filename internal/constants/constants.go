package constants

type (
	DriverStatus  string
	AlertStatus   string
	AlertPriority string
	AlertChannel  string
	SyncStatus    string
	SyncTrigger   string
	CachePrefix   string
)

const (
	DriverActive    DriverStatus = "ACTIVE"
	DriverInactive  DriverStatus = "INACTIVE"
	DriverSuspended DriverStatus = "SUSPENDED"

	AlertPending   AlertStatus = "PENDING"
	AlertSent      AlertStatus = "SENT"
	AlertFailed    AlertStatus = "FAILED"
	AlertDelivered AlertStatus = "DELIVERED"
	AlertRead      AlertStatus = "READ"

	PriorityLow      AlertPriority = "low"
	PriorityMedium   AlertPriority = "medium"
	PriorityHigh     AlertPriority = "high"
	PriorityCritical AlertPriority = "critical"

	ChannelTelegram AlertChannel = "telegram"
	ChannelWhatsApp AlertChannel = "whatsapp"
	ChannelVoice    AlertChannel = "voice"
	ChannelEmail    AlertChannel = "email"

	SyncInProgress SyncStatus = "IN_PROGRESS"
	SyncSuccess    SyncStatus = "SUCCESS"
	SyncPartial    SyncStatus = "PARTIAL"
	SyncFailure    SyncStatus = "FAILURE"

	SyncTriggerAuto   SyncTrigger = "AUTO"
	SyncTriggerManual SyncTrigger = "MANUAL"

	CachePrefixSettings  CachePrefix = "SETTINGS_"
	CachePrefixToken     CachePrefix = "TOKEN_"
	CachePrefixLastScore CachePrefix = "SCORE_"
)

// Sync event types for the sync_logs table
const (
	SyncEventDrivers = "DRIVER_TELEMETRY_SYNC"
)

// PriorityRank orders alert priorities from least to most urgent.
var PriorityRank = map[AlertPriority]int{
	PriorityLow:      0,
	PriorityMedium:   1,
	PriorityHigh:     2,
	PriorityCritical: 3,
}
