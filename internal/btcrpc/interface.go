package btcrpc

import (
	"context"

	"github.com/btcsuite/btcd/chaincfg"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type IBtcRpc interface {
	Network() *chaincfg.Params
	ValidateAddress(address string) error
	Balance(ctx context.Context, address string) (*model.Web3BigInt, error)
	TipHeight(ctx context.Context) (int64, error)
}
