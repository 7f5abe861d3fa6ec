package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
)

const limitsCacheKey = "swap_limits"

type gateway struct {
	client            *resty.Client
	clock             clockwork.Clock
	logger            *logger.Logger
	limitsCache       *cache.Cache
	maxDifferencePPM  int
	pollInterval      time.Duration
	confirmationLimit time.Duration
}

func New(appConfig *config.AppConfig, logger *logger.Logger, clock clockwork.Clock) IGateway {
	cfg := appConfig.Gateway

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.RequestTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Api-Key", cfg.APIKey).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(retryReads)

	ttl := cfg.LimitsCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	return &gateway{
		client:            client,
		clock:             clock,
		logger:            logger,
		limitsCache:       cache.New(ttl, 2*ttl),
		maxDifferencePPM:  cfg.PricingFeeDifferencePPM,
		pollInterval:      pollInterval,
		confirmationLimit: cfg.ConfirmationTimeout,
	}
}

// retryReads retries GETs on transport errors, throttling and server errors.
// Writes are never replayed: a resent submit could double broadcast.
func retryReads(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil || resp.Request.Method != http.MethodGet {
		return false
	}
	if err != nil {
		return true
	}

	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// do executes one request. params fill the {name} segments of path and are
// escaped by resty.
func (g *gateway) do(ctx context.Context, method, path string, params map[string]string, body, result interface{}) error {
	var errResp errorResponse
	req := g.client.R().
		SetContext(ctx).
		SetPathParams(params).
		SetResult(result).
		SetError(&errResp)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(err, "swap network %s %s", method, path)
	}

	if resp.IsError() {
		code := ErrorCode(errResp.Code)
		if knownCodes[code] {
			return &Error{Code: code, Message: errResp.Message, StatusCode: resp.StatusCode()}
		}
		return fmt.Errorf("swap network %s %s: status %d: %s", method, path, resp.StatusCode(), errResp.Message)
	}

	return nil
}

func swapParams(swapID string) map[string]string {
	return map[string]string{"id": swapID}
}

func (g *gateway) GetSwapLimits(ctx context.Context) (*model.SwapLimits, error) {
	if cached, ok := g.limitsCache.Get(limitsCacheKey); ok {
		return cached.(*model.SwapLimits), nil
	}

	var resp limitsResponse
	if err := g.do(ctx, http.MethodGet, "/v1/limits", nil, nil, &resp); err != nil {
		g.logger.Error("[GetSwapLimits][do]", map[string]string{
			"error": err.Error(),
		})
		return nil, err
	}

	limits, err := decodeLimits(&resp)
	if err != nil {
		return nil, err
	}

	g.limitsCache.SetDefault(limitsCacheKey, limits)
	return limits, nil
}

func (g *gateway) GetQuote(ctx context.Context, req QuoteRequest) (*model.Quote, error) {
	if req.AmountSats <= 0 {
		return nil, &Error{Code: CodeOutOfLimits, Message: "amount must be positive"}
	}

	// only an already cached range is consulted, a cold cache costs no extra round trip
	if cached, ok := g.limitsCache.Get(limitsCacheKey); ok {
		limits := cached.(*model.SwapLimits)
		if req.ExactIn && !limits.Input.Contains(req.AmountSats) {
			return nil, &Error{
				Code:    CodeOutOfLimits,
				Message: fmt.Sprintf("amount %d sats outside [%d, %d]", req.AmountSats, limits.Input.Min, limits.Input.Max),
			}
		}
	}

	body := quoteRequest{
		Amount:                strconv.FormatInt(req.AmountSats, 10),
		ExactIn:               req.ExactIn,
		DestinationAddress:    req.DestinationAddress,
		MaxPriceDifferencePPM: g.maxDifferencePPM,
	}

	var resp quoteResponse
	if err := g.do(ctx, http.MethodPost, "/v1/quotes", nil, body, &resp); err != nil {
		g.logger.Error("[GetQuote][do]", map[string]string{
			"error":  err.Error(),
			"amount": body.Amount,
		})
		return nil, err
	}

	return decodeQuote(&resp)
}

func (g *gateway) GetPsbtForSigning(ctx context.Context, swapID, payerAddress, payerPublicKey string) (*model.SigningPackage, error) {
	body := psbtRequest{Address: payerAddress, PublicKey: payerPublicKey}

	var resp psbtResponse
	if err := g.do(ctx, http.MethodPost, "/v1/swaps/{id}/psbt", swapParams(swapID), body, &resp); err != nil {
		g.logger.Error("[GetPsbtForSigning][do]", map[string]string{
			"error":  err.Error(),
			"swapID": swapID,
		})
		return nil, err
	}

	return decodeSigningPackage(swapID, payerAddress, payerPublicKey, &resp)
}

func (g *gateway) SubmitSignedPsbt(ctx context.Context, swapID, signedPsbt string) (string, error) {
	var resp submitResponse
	if err := g.do(ctx, http.MethodPost, "/v1/swaps/{id}/submit", swapParams(swapID), submitRequest{Psbt: signedPsbt}, &resp); err != nil {
		g.logger.Error("[SubmitSignedPsbt][do]", map[string]string{
			"error":  err.Error(),
			"swapID": swapID,
		})
		return "", err
	}

	if err := validateTxID(resp.TxID); err != nil {
		return "", err
	}

	return resp.TxID, nil
}

func (g *gateway) GetSwapStatus(ctx context.Context, swapID string) (*model.Swap, error) {
	var resp swapResponse
	if err := g.do(ctx, http.MethodGet, "/v1/swaps/{id}", swapParams(swapID), nil, &resp); err != nil {
		return nil, err
	}

	return decodeSwap(&resp, g.clock.Now())
}
