package walletsession

import (
	"time"

	"gorm.io/gorm"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type IStore interface {
	Get(tx *gorm.DB, profileID, storageKey string) (*model.WalletSession, error)
	// Upsert replaces the record for (profile, storage key). Last write wins.
	Upsert(tx *gorm.DB, session *model.WalletSession) error
	UpdateLastActivity(tx *gorm.DB, profileID, storageKey string, at time.Time) error
	Delete(tx *gorm.DB, profileID, storageKey string) error
	// ListStale returns sessions connected before connectedBefore or idle since activeBefore.
	ListStale(tx *gorm.DB, connectedBefore, activeBefore time.Time) ([]model.WalletSession, error)
}
