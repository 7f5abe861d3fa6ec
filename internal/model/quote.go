package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is an immutable offer from the swap network. A new quote supersedes
// the previous one, it is never updated in place.
type Quote struct {
	ID             string          `json:"id"`
	FromAmountSats int64           `json:"from_amount_sats"`
	TotalInputSats int64           `json:"total_input_sats"`
	FeeSats        int64           `json:"fee_sats"`
	ToAmount       *Web3BigInt     `json:"to_amount"`
	Rate           decimal.Decimal `json:"rate"`
	Slippage       decimal.Decimal `json:"slippage"`
	PriceInfo      PriceInfo       `json:"price_info"`
	ExpiresAt      time.Time       `json:"expires_at"`
}

type PriceInfo struct {
	SwapPrice     decimal.Decimal `json:"swap_price"`
	MarketPrice   decimal.Decimal `json:"market_price"`
	DifferencePPM int64           `json:"difference_ppm"`
}

func (q *Quote) IsExpired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

type AmountRange struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

func (r AmountRange) Contains(amount int64) bool {
	return amount >= r.Min && amount <= r.Max
}

// SwapLimits bounds a swap: Input in sats, Output in destination base units.
type SwapLimits struct {
	Input     AmountRange `json:"input"`
	OutputMin *Web3BigInt `json:"output_min"`
	OutputMax *Web3BigInt `json:"output_max"`
}
