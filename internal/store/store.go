package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/store/purchaseattempt"
	"github.com/dwarvesf/btc-strk-purchase/internal/store/walletsession"
)

type Store struct {
	WalletSession   walletsession.IStore
	PurchaseAttempt purchaseattempt.IStore
}

func New() *Store {
	return &Store{
		WalletSession:   walletsession.New(),
		PurchaseAttempt: purchaseattempt.New(),
	}
}

// WithContext binds ctx to db. A nil db stays nil so callers with mocked
// stores need no connection.
func WithContext(db *gorm.DB, ctx context.Context) *gorm.DB {
	if db == nil {
		return nil
	}
	return db.WithContext(ctx)
}
