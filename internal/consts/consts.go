package consts

import "time"

const (
	BTC_DECIMALS  = 8
	STRK_DECIMALS = 18
)

// storage keys of the persisted wallet sessions, one per chain
const (
	BitcoinSessionStorageKey  = "xverse_session"
	StarknetSessionStorageKey = "starknet_session"

	SessionSchemaVersion = 1
)

const (
	DefaultPricingFeeDifferencePPM = 20000

	DefaultCompletionTimeout   = 60 * time.Second
	DefaultMonitorInterval     = 30 * time.Second
	DefaultMonitorMaxAttempts  = 20
	DefaultGatewayPollInterval = 5 * time.Second

	DefaultSessionMaxAge        = 24 * time.Hour
	DefaultSessionIdleTimeout   = 2 * time.Hour
	DefaultSessionWarningWindow = 10 * time.Minute
	DefaultSessionCheckSchedule = "@every 5m"
)

const (
	ProfileIDHeader = "X-Profile-ID"
	// gin context key holding the validated profile id
	ProfileIDKey = "profile_id"
)
