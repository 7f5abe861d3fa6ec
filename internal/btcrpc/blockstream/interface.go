package blockstream

import "context"

type IBlockStream interface {
	GetBalance(ctx context.Context, address string) (*Balance, error)
	TipHeight(ctx context.Context) (int64, error)
}
