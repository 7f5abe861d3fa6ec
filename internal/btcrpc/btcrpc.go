package btcrpc

import (
	"context"
	"math/big"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/patrickmn/go-cache"

	"github.com/dwarvesf/btc-strk-purchase/internal/btcrpc/blockstream"
	"github.com/dwarvesf/btc-strk-purchase/internal/consts"
	"github.com/dwarvesf/btc-strk-purchase/internal/model"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/config"
	"github.com/dwarvesf/btc-strk-purchase/internal/utils/logger"
)

type BtcRpc struct {
	params       *chaincfg.Params
	blockstream  blockstream.IBlockStream
	balanceCache *cache.Cache
	logger       *logger.Logger
}

func New(appConfig *config.AppConfig, logger *logger.Logger, bs blockstream.IBlockStream) (IBtcRpc, error) {
	params, err := NetworkParams(appConfig.Bitcoin.Network)
	if err != nil {
		return nil, err
	}

	ttl := appConfig.Bitcoin.BalanceCacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &BtcRpc{
		params:       params,
		blockstream:  bs,
		balanceCache: cache.New(ttl, 2*ttl),
		logger:       logger,
	}, nil
}

func (b *BtcRpc) Network() *chaincfg.Params {
	return b.params
}

func (b *BtcRpc) ValidateAddress(address string) error {
	return ValidateAddress(address, b.params)
}

// Balance returns the confirmed plus mempool balance of address, cached per address.
func (b *BtcRpc) Balance(ctx context.Context, address string) (*model.Web3BigInt, error) {
	if cached, ok := b.balanceCache.Get(address); ok {
		return cached.(*model.Web3BigInt), nil
	}

	balance, err := b.blockstream.GetBalance(ctx, address)
	if err != nil {
		b.logger.Error("[Balance][blockstream.GetBalance]", map[string]string{
			"error":   err.Error(),
			"address": address,
		})
		return nil, err
	}

	result := model.NewWeb3BigInt(big.NewInt(balance.TotalSats()), consts.BTC_DECIMALS)
	b.balanceCache.SetDefault(address, result)

	return result, nil
}

func (b *BtcRpc) TipHeight(ctx context.Context) (int64, error) {
	return b.blockstream.TipHeight(ctx)
}
