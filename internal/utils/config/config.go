package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/types/environments"
)

type AppConfig struct {
	Environment environments.Environment
	ApiServer   ApiServerConfig
	Postgres    DBConnection
	Bitcoin     BitcoinConfig
	Gateway     GatewayConfig
	Purchase    PurchaseConfig
	Session     SessionConfig
	Webhook     WebhookConfig
}

type ApiServerConfig struct {
	Port           string
	AllowedOrigins string
	EnableSwagger  bool
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

type BitcoinConfig struct {
	// mainnet, testnet or testnet4
	Network           string
	BlockstreamAPIURL string
	BalanceCacheTTL   time.Duration
}

type GatewayConfig struct {
	BaseURL                 string
	APIKey                  string
	RequestTimeout          time.Duration
	PollInterval            time.Duration
	ConfirmationTimeout     time.Duration
	LimitsCacheTTL          time.Duration
	PricingFeeDifferencePPM int
	RetryCount              int
}

type PurchaseConfig struct {
	CompletionTimeout  time.Duration
	MonitorInterval    time.Duration
	MonitorMaxAttempts int
}

type SessionConfig struct {
	MaxAge        time.Duration
	IdleTimeout   time.Duration
	WarningWindow time.Duration
	CheckSchedule string
}

type WebhookConfig struct {
	PurchaseCompletedURL string
}

func New() *AppConfig {
	env := environments.Parse(os.Getenv("APP_ENV"))

	// this will not override env variables if they already exist
	godotenv.Load(".env." + string(env))

	checkSchedule := os.Getenv("SESSION_CHECK_SCHEDULE")
	if checkSchedule == "" {
		checkSchedule = consts.DefaultSessionCheckSchedule
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	network := os.Getenv("BTC_NETWORK")
	if network == "" {
		network = "mainnet"
	}

	return &AppConfig{
		Environment: env,
		ApiServer: ApiServerConfig{
			Port:           port,
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
			EnableSwagger:  envVarAsBool("ENABLE_SWAGGER"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: os.Getenv("DB_SSL_MODE"),
		},
		Bitcoin: BitcoinConfig{
			Network:           network,
			BlockstreamAPIURL: os.Getenv("BTC_BLOCKSTREAM_API_URL"),
			BalanceCacheTTL:   envVarDurationOrDefault("BTC_BALANCE_CACHE_TTL", time.Minute),
		},
		Gateway: GatewayConfig{
			BaseURL:                 os.Getenv("GATEWAY_BASE_URL"),
			APIKey:                  os.Getenv("GATEWAY_API_KEY"),
			RequestTimeout:          envVarDurationOrDefault("GATEWAY_REQUEST_TIMEOUT", 15*time.Second),
			PollInterval:            envVarDurationOrDefault("GATEWAY_POLL_INTERVAL", consts.DefaultGatewayPollInterval),
			ConfirmationTimeout:     envVarDurationOrDefault("GATEWAY_CONFIRMATION_TIMEOUT", 3*time.Hour),
			LimitsCacheTTL:          envVarDurationOrDefault("GATEWAY_LIMITS_CACHE_TTL", 5*time.Minute),
			PricingFeeDifferencePPM: envVarAtoiOrDefault("GATEWAY_PRICING_FEE_DIFFERENCE_PPM", consts.DefaultPricingFeeDifferencePPM),
			RetryCount:              envVarAtoiOrDefault("GATEWAY_RETRY_COUNT", 3),
		},
		Purchase: PurchaseConfig{
			CompletionTimeout:  envVarDurationOrDefault("PURCHASE_COMPLETION_TIMEOUT", consts.DefaultCompletionTimeout),
			MonitorInterval:    envVarDurationOrDefault("PURCHASE_MONITOR_INTERVAL", consts.DefaultMonitorInterval),
			MonitorMaxAttempts: envVarAtoiOrDefault("PURCHASE_MONITOR_MAX_ATTEMPTS", consts.DefaultMonitorMaxAttempts),
		},
		Session: SessionConfig{
			MaxAge:        envVarDurationOrDefault("SESSION_MAX_AGE", consts.DefaultSessionMaxAge),
			IdleTimeout:   envVarDurationOrDefault("SESSION_IDLE_TIMEOUT", consts.DefaultSessionIdleTimeout),
			WarningWindow: envVarDurationOrDefault("SESSION_WARNING_WINDOW", consts.DefaultSessionWarningWindow),
			CheckSchedule: checkSchedule,
		},
		Webhook: WebhookConfig{
			PurchaseCompletedURL: os.Getenv("WEBHOOK_PURCHASE_COMPLETED_URL"),
		},
	}
}

func envVarAtoi(envName string) int {
	valueStr := os.Getenv(envName)
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func envVarAtoiOrDefault(envName string, fallback int) int {
	if os.Getenv(envName) == "" {
		return fallback
	}

	return envVarAtoi(envName)
}

func envVarDurationOrDefault(envName string, fallback time.Duration) time.Duration {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		panic(err)
	}

	return value
}

func envVarAsBool(envName string) bool {
	valueStr := os.Getenv(envName)
	return valueStr == "true"
}
