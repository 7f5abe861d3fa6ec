package purchaseattempt

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type store struct {
}

func New() IStore {
	return &store{}
}

func (s *store) Upsert(tx *gorm.DB, attempt *model.PurchaseAttempt) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "purchase_id"}},
		UpdateAll: true,
	}).Create(attempt).Error
}

func (s *store) GetByPurchaseID(tx *gorm.DB, purchaseID string) (*model.PurchaseAttempt, error) {
	var attempt model.PurchaseAttempt
	err := tx.Where("purchase_id = ?", purchaseID).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (s *store) ListByProfile(tx *gorm.DB, profileID string, limit int) ([]model.PurchaseAttempt, error) {
	var attempts []model.PurchaseAttempt
	err := tx.Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, err
	}
	return attempts, nil
}
