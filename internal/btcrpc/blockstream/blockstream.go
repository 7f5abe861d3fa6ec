package blockstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
)

const maxRetries = 3

type blockstream struct {
	baseURL      string
	client       *http.Client
	logger       *logger.Logger
	retryBackoff time.Duration
}

func New(cfg *config.AppConfig, logger *logger.Logger) IBlockStream {
	return &blockstream{
		baseURL:      strings.TrimRight(cfg.Bitcoin.BlockstreamAPIURL, "/"),
		client:       &http.Client{Timeout: 10 * time.Second},
		logger:       logger,
		retryBackoff: time.Second,
	}
}

// GetBalance reads the esplora address stats. Unconfirmed covers the mempool
// so a payment that has just been broadcast already counts.
func (c *blockstream) GetBalance(ctx context.Context, address string) (*Balance, error) {
	var response GetBalanceResponse
	if err := c.getJSON(ctx, "GetBalance", fmt.Sprintf("%s/address/%s", c.baseURL, address), &response); err != nil {
		return nil, err
	}

	return &Balance{
		ConfirmedSats:   response.ChainStats.FundedTxoSum - response.ChainStats.SpentTxoSum,
		UnconfirmedSats: response.MempoolStats.FundedTxoSum - response.MempoolStats.SpentTxoSum,
	}, nil
}

func (c *blockstream) TipHeight(ctx context.Context) (int64, error) {
	body, err := c.get(ctx, "TipHeight", fmt.Sprintf("%s/blocks/tip/height", c.baseURL))
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse tip height")
	}

	return height, nil
}

func (c *blockstream) getJSON(ctx context.Context, caller, url string, out interface{}) error {
	body, err := c.get(ctx, caller, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Error(fmt.Sprintf("[%s][json.Unmarshal]", caller), map[string]string{
			"error": err.Error(),
			"body":  string(body),
		})
		return errors.Wrap(err, "failed to parse JSON response")
	}

	return nil
}

func (c *blockstream) get(ctx context.Context, caller, url string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt-1) * c.retryBackoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, errors.Wrap(err, "failed to create request")
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = errors.Wrap(err, "failed to request esplora")
			c.logger.Error(fmt.Sprintf("[%s][client.Do]", caller), map[string]string{
				"error":   err.Error(),
				"attempt": strconv.Itoa(attempt),
			})
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = errors.Wrap(err, "failed to read response body")
			c.logger.Error(fmt.Sprintf("[%s][io.ReadAll]", caller), map[string]string{
				"error":   err.Error(),
				"attempt": strconv.Itoa(attempt),
			})
			continue
		}

		if resp.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
			c.logger.Error(fmt.Sprintf("[%s][client.Do]", caller), map[string]string{
				"error":      lastErr.Error(),
				"statusCode": strconv.Itoa(resp.StatusCode),
				"attempt":    strconv.Itoa(attempt),
			})

			// a malformed address will not get better by asking again
			if resp.StatusCode == http.StatusBadRequest {
				return nil, lastErr
			}
			continue
		}

		return body, nil
	}

	return nil, lastErr
}
