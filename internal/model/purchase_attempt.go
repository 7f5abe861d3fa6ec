package model

import (
	"time"

	"gorm.io/gorm"
)

// PurchaseAttempt is the audit trail of a purchase flow, rewritten on every step change.
type PurchaseAttempt struct {
	gorm.Model
	PurchaseID        string     `gorm:"column:purchase_id;type:varchar(64);not null;uniqueIndex"`
	ProfileID         string     `gorm:"column:profile_id;type:varchar(255);not null;index"`
	AssetID           string     `gorm:"column:asset_id;type:varchar(255);not null"`
	SellerAddress     string     `gorm:"column:seller_address;type:varchar(255);not null"`
	PriceSats         int64      `gorm:"column:price_sats;not null"`
	Step              string     `gorm:"column:step;type:varchar(50);not null"`
	Attempt           int        `gorm:"column:attempt;not null;default:1"`
	SwapID            string     `gorm:"column:swap_id;type:varchar(255);index"`
	BtcTxID           string     `gorm:"column:btc_tx_id;type:varchar(64)"`
	DestinationTxHash string     `gorm:"column:destination_tx_hash;type:varchar(100)"`
	ProgressMessage   string     `gorm:"column:progress_message;type:text"`
	FailureKind       string     `gorm:"column:failure_kind;type:varchar(50)"`
	FailureMessage    string     `gorm:"column:failure_message;type:text"`
	FailedStage       string     `gorm:"column:failed_stage;type:varchar(50)"`
	Dismissed         bool       `gorm:"column:dismissed;not null;default:false"`
	CompletedAt       *time.Time `gorm:"column:completed_at"`
}

func (PurchaseAttempt) TableName() string {
	return "purchase_attempts"
}
