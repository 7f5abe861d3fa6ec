package gateway

import (
	"context"
	"time"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type QuoteRequest struct {
	AmountSats         int64
	DestinationAddress string
	ExactIn            bool
}

// IGateway is the only way the purchase flow reaches the swap network and,
// through it, the Bitcoin network.
type IGateway interface {
	GetSwapLimits(ctx context.Context) (*model.SwapLimits, error)
	GetQuote(ctx context.Context, req QuoteRequest) (*model.Quote, error)
	GetPsbtForSigning(ctx context.Context, swapID, payerAddress, payerPublicKey string) (*model.SigningPackage, error)
	SubmitSignedPsbt(ctx context.Context, swapID, signedPsbt string) (string, error)
	// WaitForBitcoinConfirmation returns true once the bitcoin leg is deep
	// enough, or already settled by fronting.
	WaitForBitcoinConfirmation(ctx context.Context, swapID string, onProgress func(model.ConfirmationProgress)) (bool, error)
	// WaitForSwapCompletion returns false when timeout elapses first. It never fails.
	WaitForSwapCompletion(ctx context.Context, swapID string, timeout time.Duration) bool
	GetSwapStatus(ctx context.Context, swapID string) (*model.Swap, error)
}
