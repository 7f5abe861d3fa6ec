package walletsession

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/dwarvesf/btc-strk-purchase/internal/model"
)

type store struct {
}

func New() IStore {
	return &store{}
}

func (s *store) Get(tx *gorm.DB, profileID, storageKey string) (*model.WalletSession, error) {
	var session model.WalletSession
	err := tx.Where("profile_id = ? AND storage_key = ?", profileID, storageKey).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *store) Upsert(tx *gorm.DB, session *model.WalletSession) error {
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}, {Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"chain", "account", "connected_at", "last_activity", "schema_version", "updated_at", "deleted_at",
		}),
	}).Create(session).Error
}

func (s *store) UpdateLastActivity(tx *gorm.DB, profileID, storageKey string, at time.Time) error {
	return tx.Model(&model.WalletSession{}).
		Where("profile_id = ? AND storage_key = ?", profileID, storageKey).
		Update("last_activity", at).Error
}

// Delete removes the row for good so a reconnect can reuse the unique key.
func (s *store) Delete(tx *gorm.DB, profileID, storageKey string) error {
	return tx.Unscoped().
		Where("profile_id = ? AND storage_key = ?", profileID, storageKey).
		Delete(&model.WalletSession{}).Error
}

func (s *store) ListStale(tx *gorm.DB, connectedBefore, activeBefore time.Time) ([]model.WalletSession, error) {
	var sessions []model.WalletSession
	err := tx.Where("connected_at < ? OR last_activity < ?", connectedBefore, activeBefore).
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
