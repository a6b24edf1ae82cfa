package utils

import "time"

// Delivery channels
const (
	ChannelEmail    = "email"
	ChannelWhatsApp = "whatsapp"
)

// Reconciliation
const (
	// DefaultConfidenceThreshold gates automatic reply application.
	DefaultConfidenceThreshold = 0.7

	// FallbackConfidence is assigned when extraction output is unparsable.
	FallbackConfidence = 0.3

	// MissingConfidence is assigned when extraction omits the confidence field.
	MissingConfidence = 0.5
)

// Campaign runner
const (
	// InterRowDelay spaces deliveries within a campaign run.
	InterRowDelay = 1 * time.Second

	// CampaignLockTTL bounds the distributed launch lock lifetime.
	CampaignLockTTL = 30 * time.Minute
)

// Auth
const (
	SessionTokenTTL = 24 * time.Hour
)

// Spreadsheet ingestion
const (
	MaxUploadSizeBytes = 10 * 1024 * 1024
)

// Redis keys
const (
	RedisCampaignLockPrefix = "campaign_run_lock:"
	RedisActiveModelKey     = "settings:active_model"
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Request-scoped context keys
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
