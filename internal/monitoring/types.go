package monitoring

import (
	"time"
)

// CircuitBreakerConfig defines the configuration for circuit breakers
type CircuitBreakerConfig struct {
	MaxRequests                 uint32        `json:"max_requests"`
	Interval                    time.Duration `json:"interval"`
	Timeout                     time.Duration `json:"timeout"`
	ConsecutiveFailureThreshold int           `json:"consecutive_failure_threshold"`
}

// TimeoutConfig bounds single calls. Long polling waits are bounded by their
// own deadlines instead.
type TimeoutConfig struct {
	RequestTimeout     time.Duration `json:"request_timeout"`
	HealthCheckTimeout time.Duration `json:"health_check_timeout"`
}

type APIErrorType string

const (
	ErrorTypeTimeout      APIErrorType = "timeout"
	ErrorTypeNetworkError APIErrorType = "network_error"
	ErrorTypeServerError  APIErrorType = "server_error"
	ErrorTypeClientError  APIErrorType = "client_error"
	ErrorTypeRejection    APIErrorType = "rejection"
	ErrorTypeUnknown      APIErrorType = "unknown"
)

const (
	ServiceSwapGateway = "swap_gateway"
	ServiceBlockstream = "blockstream_api"
)

var CircuitBreakerConfigs = map[string]CircuitBreakerConfig{
	ServiceSwapGateway: {
		MaxRequests:                 3,
		Interval:                    30 * time.Second,
		Timeout:                     60 * time.Second,
		ConsecutiveFailureThreshold: 5,
	},
	ServiceBlockstream: {
		MaxRequests:                 5,
		Interval:                    30 * time.Second,
		Timeout:                     60 * time.Second,
		ConsecutiveFailureThreshold: 3,
	},
}

var DefaultTimeoutConfig = TimeoutConfig{
	RequestTimeout:     20 * time.Second,
	HealthCheckTimeout: 3 * time.Second,
}
