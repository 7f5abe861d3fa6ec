package monitoring

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/dwarvesf/btc-strk-purchase/internal/btcrpc/blockstream"
	"github.com/dwarvesf/btc-strk-purchase/internal/gateway"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
)

const operationHealthCheck = "health_check"

type breaker struct {
	service        string
	circuitBreaker *gobreaker.CircuitBreaker
	metrics        *ExternalAPIMetrics
	logger         *logger.Logger
	timeoutConfig  TimeoutConfig
}

func newBreaker(service string, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *breaker {
	b := &breaker{
		service:       service,
		metrics:       metrics,
		logger:        logger,
		timeoutConfig: timeoutConfig,
	}

	settings := gobreaker.Settings{
		Name:        service,
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(config.ConsecutiveFailureThreshold)
		},
		// an explicit refusal or a caller giving up says nothing about the remote's health
		IsSuccessful: func(err error) bool {
			return err == nil || gateway.IsRejection(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Info("Circuit breaker state change", map[string]string{
				"service": name,
				"from":    from.String(),
				"to":      to.String(),
			})
			metrics.UpdateCircuitBreakerState(name, to)
		},
	}

	b.circuitBreaker = gobreaker.NewCircuitBreaker(settings)
	metrics.UpdateCircuitBreakerState(service, gobreaker.StateClosed)

	return b
}

// executeWithTimeout bounds a single call and records its outcome.
func (b *breaker) executeWithTimeout(ctx context.Context, operation string, fn func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	timeout := b.timeoutConfig.RequestTimeout
	if operation == operationHealthCheck {
		timeout = b.timeoutConfig.HealthCheckTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := fn(callCtx)
	duration := time.Since(start).Seconds()

	status := "success"
	switch {
	case err == nil:
	case gateway.IsRejection(err):
		status = "rejected"
	case ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded):
		status = "timeout"
		b.metrics.RecordTimeout(b.service, operation)
		err = fmt.Errorf("timeout: %w", err)
		b.logError(operation, duration, err)
	default:
		status = "error"
		b.logError(operation, duration, err)
	}
	b.metrics.RecordAPICall(b.service, operation, status, duration)

	return result, err
}

func call[T any](b *breaker, ctx context.Context, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	result, err := b.circuitBreaker.Execute(func() (interface{}, error) {
		return b.executeWithTimeout(ctx, operation, func(ctx context.Context) (interface{}, error) {
			return fn(ctx)
		})
	})

	var zero T
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}

	return result.(T), nil
}

func (b *breaker) logError(operation string, duration float64, err error) {
	b.logger.Error("External API call failed", map[string]string{
		"service":    b.service,
		"operation":  operation,
		"duration":   strconv.FormatFloat(duration, 'f', 3, 64),
		"error":      err.Error(),
		"error_type": string(classifyError(err)),
		"cb_state":   b.circuitBreaker.State().String(),
	})
}

// CircuitBreakerGateway guards the swap network. Long polling waits pass
// through untouched since their inner reads are bounded already.
type CircuitBreakerGateway struct {
	wrapped gateway.IGateway
	*breaker
}

func NewCircuitBreakerGateway(wrapped gateway.IGateway, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerGateway {
	return &CircuitBreakerGateway{
		wrapped: wrapped,
		breaker: newBreaker(ServiceSwapGateway, config, timeoutConfig, metrics, logger),
	}
}

func (cb *CircuitBreakerGateway) State() gobreaker.State {
	return cb.circuitBreaker.State()
}

func (cb *CircuitBreakerGateway) GetSwapLimits(ctx context.Context) (*model.SwapLimits, error) {
	return call(cb.breaker, ctx, "get_swap_limits", cb.wrapped.GetSwapLimits)
}

func (cb *CircuitBreakerGateway) GetQuote(ctx context.Context, req gateway.QuoteRequest) (*model.Quote, error) {
	return call(cb.breaker, ctx, "get_quote", func(ctx context.Context) (*model.Quote, error) {
		return cb.wrapped.GetQuote(ctx, req)
	})
}

func (cb *CircuitBreakerGateway) GetPsbtForSigning(ctx context.Context, swapID, payerAddress, payerPublicKey string) (*model.SigningPackage, error) {
	return call(cb.breaker, ctx, "get_psbt", func(ctx context.Context) (*model.SigningPackage, error) {
		return cb.wrapped.GetPsbtForSigning(ctx, swapID, payerAddress, payerPublicKey)
	})
}

func (cb *CircuitBreakerGateway) SubmitSignedPsbt(ctx context.Context, swapID, signedPsbt string) (string, error) {
	return call(cb.breaker, ctx, "submit_psbt", func(ctx context.Context) (string, error) {
		return cb.wrapped.SubmitSignedPsbt(ctx, swapID, signedPsbt)
	})
}

func (cb *CircuitBreakerGateway) WaitForBitcoinConfirmation(ctx context.Context, swapID string, onProgress func(model.ConfirmationProgress)) (bool, error) {
	return cb.wrapped.WaitForBitcoinConfirmation(ctx, swapID, onProgress)
}

func (cb *CircuitBreakerGateway) WaitForSwapCompletion(ctx context.Context, swapID string, timeout time.Duration) bool {
	return cb.wrapped.WaitForSwapCompletion(ctx, swapID, timeout)
}

func (cb *CircuitBreakerGateway) GetSwapStatus(ctx context.Context, swapID string) (*model.Swap, error) {
	return call(cb.breaker, ctx, "get_swap_status", func(ctx context.Context) (*model.Swap, error) {
		return cb.wrapped.GetSwapStatus(ctx, swapID)
	})
}

// HealthCheck reads the swap limits with the short health timeout.
func (cb *CircuitBreakerGateway) HealthCheck(ctx context.Context) error {
	_, err := call(cb.breaker, ctx, operationHealthCheck, cb.wrapped.GetSwapLimits)
	return err
}

// CircuitBreakerBlockStream guards the Bitcoin explorer used for balances.
type CircuitBreakerBlockStream struct {
	wrapped blockstream.IBlockStream
	*breaker
}

func NewCircuitBreakerBlockStream(wrapped blockstream.IBlockStream, config CircuitBreakerConfig, timeoutConfig TimeoutConfig, metrics *ExternalAPIMetrics, logger *logger.Logger) *CircuitBreakerBlockStream {
	return &CircuitBreakerBlockStream{
		wrapped: wrapped,
		breaker: newBreaker(ServiceBlockstream, config, timeoutConfig, metrics, logger),
	}
}

func (cb *CircuitBreakerBlockStream) State() gobreaker.State {
	return cb.circuitBreaker.State()
}

func (cb *CircuitBreakerBlockStream) GetBalance(ctx context.Context, address string) (*blockstream.Balance, error) {
	return call(cb.breaker, ctx, "get_balance", func(ctx context.Context) (*blockstream.Balance, error) {
		return cb.wrapped.GetBalance(ctx, address)
	})
}

func (cb *CircuitBreakerBlockStream) TipHeight(ctx context.Context) (int64, error) {
	return call(cb.breaker, ctx, "tip_height", cb.wrapped.TipHeight)
}

// HealthCheck probes the explorer with the short health timeout.
func (cb *CircuitBreakerBlockStream) HealthCheck(ctx context.Context) error {
	_, err := call(cb.breaker, ctx, operationHealthCheck, cb.wrapped.TipHeight)
	return err
}

// classifyError classifies errors into different types for metrics and logging
func classifyError(err error) APIErrorType {
	if err == nil {
		return ""
	}
	if gateway.IsRejection(err) {
		return ErrorTypeRejection
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}

	errMsg := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errMsg, "timeout"),
		strings.Contains(errMsg, "deadline exceeded"):
		return ErrorTypeTimeout
	case strings.Contains(errMsg, "network"),
		strings.Contains(errMsg, "connection"),
		strings.Contains(errMsg, "unreachable"),
		strings.Contains(errMsg, "dns"):
		return ErrorTypeNetworkError
	case strings.Contains(errMsg, "status 5"),
		strings.Contains(errMsg, "internal server error"),
		strings.Contains(errMsg, "bad gateway"),
		strings.Contains(errMsg, "service unavailable"):
		return ErrorTypeServerError
	case strings.Contains(errMsg, "status 4"),
		strings.Contains(errMsg, "unauthorized"),
		strings.Contains(errMsg, "forbidden"),
		strings.Contains(errMsg, "rate limit"):
		return ErrorTypeClientError
	}

	return ErrorTypeUnknown
}

func validateCircuitBreakerConfig(config CircuitBreakerConfig) error {
	if config.MaxRequests == 0 {
		return fmt.Errorf("max_requests must be greater than 0")
	}
	if config.ConsecutiveFailureThreshold <= 0 {
		return fmt.Errorf("consecutive_failure_threshold must be greater than 0")
	}
	if config.Timeout < 0 {
		return fmt.Errorf("timeout must be non-negative")
	}
	if config.Interval < 0 {
		return fmt.Errorf("interval must be non-negative")
	}

	return nil
}

// ConfigFor returns the named breaker config, falling back to the gateway one
// when the named config is missing or invalid.
func ConfigFor(service string) CircuitBreakerConfig {
	if cfg, ok := CircuitBreakerConfigs[service]; ok && validateCircuitBreakerConfig(cfg) == nil {
		return cfg
	}
	return CircuitBreakerConfigs[ServiceSwapGateway]
}
