package purchaseattempt

import (
	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type IStore interface {
	Upsert(tx *gorm.DB, attempt *model.PurchaseAttempt) error
	GetByPurchaseID(tx *gorm.DB, purchaseID string) (*model.PurchaseAttempt, error)
	ListByProfile(tx *gorm.DB, profileID string, limit int) ([]model.PurchaseAttempt, error)
}
