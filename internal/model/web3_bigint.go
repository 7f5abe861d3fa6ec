package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Web3BigInt is an integer amount in the smallest unit of a chain asset.
type Web3BigInt struct {
	Value   string `json:"value"`
	Decimal int    `json:"decimal"`
}

func NewWeb3BigInt(value *big.Int, decimals int) *Web3BigInt {
	return &Web3BigInt{
		Value:   value.String(),
		Decimal: decimals,
	}
}

func (w *Web3BigInt) BigInt() (*big.Int, bool) {
	return new(big.Int).SetString(w.Value, 10)
}

func (w *Web3BigInt) Int64() (int64, bool) {
	amt, ok := w.BigInt()
	if !ok || !amt.IsInt64() {
		return 0, false
	}

	return amt.Int64(), true
}

// Amount is the human readable value, e.g. 1.5 STRK for 1500000000000000000.
func (w *Web3BigInt) Amount() decimal.Decimal {
	amt, ok := w.BigInt()
	if !ok {
		return decimal.Zero
	}

	return decimal.NewFromBigInt(amt, int32(-w.Decimal))
}

func (w *Web3BigInt) IsNegative() bool {
	amt, ok := w.BigInt()
	return ok && amt.Sign() < 0
}
