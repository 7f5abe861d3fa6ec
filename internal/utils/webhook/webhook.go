package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
)

// PurchaseCompleted is posted once a buyer has received STRK.
type PurchaseCompleted struct {
	PurchaseID    string    `json:"purchase_id"`
	SwapID        string    `json:"swap_id"`
	ProfileID     string    `json:"profile_id"`
	AssetID       string    `json:"asset_id,omitempty"`
	SellerAddress string    `json:"seller_address"`
	PriceSats     int64     `json:"price_sats"`
	BtcTxID       string    `json:"btc_tx_id"`
	CompletedAt   time.Time `json:"completed_at"`
}

// Client posts purchase events to downstream listeners.
type Client struct {
	http   *resty.Client
	logger *logger.Logger
}

func New(logger *logger.Logger) *Client {
	return &Client{
		http: resty.New().
			SetTimeout(10*time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500*time.Millisecond).
			SetHeader("Content-Type", "application/json"),
		logger: logger,
	}
}

// NotifyPurchaseCompleted posts the event to webhookURL. An empty URL is a no-op.
func (c *Client) NotifyPurchaseCompleted(ctx context.Context, webhookURL string, event PurchaseCompleted) error {
	if webhookURL == "" {
		return nil
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(event).
		Post(webhookURL)
	if err != nil {
		c.logger.Error("[NotifyPurchaseCompleted][Post]", map[string]string{
			"url":         webhookURL,
			"purchase_id": event.PurchaseID,
			"error":       err.Error(),
		})
		return err
	}
	if resp.IsError() {
		err = fmt.Errorf("webhook responded with status %d", resp.StatusCode())
		c.logger.Error("[NotifyPurchaseCompleted][Post]", map[string]string{
			"url":         webhookURL,
			"purchase_id": event.PurchaseID,
			"error":       err.Error(),
		})
		return err
	}

	c.logger.Info("Purchase completed webhook delivered", map[string]string{
		"url":         webhookURL,
		"purchase_id": event.PurchaseID,
		"status_code": resp.Status(),
	})
	return nil
}
