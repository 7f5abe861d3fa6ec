package wallet

import (
	"context"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type SignRequest struct {
	PurchaseID string               `json:"purchase_id"`
	Package    model.SigningPackage `json:"package"`
}

// ISigner is the wallet capability the purchase flow depends on. The wallet
// itself lives in the buyer's browser and never hands keys to the service.
type ISigner interface {
	SignPsbt(ctx context.Context, req SignRequest) (string, error)
}

// IBroker is the browser-facing side of the signer.
type IBroker interface {
	ISigner
	Pending(purchaseID string) (*SignRequest, bool)
	Finish(purchaseID, signedPsbt string) error
	Cancel(purchaseID string) error
}
