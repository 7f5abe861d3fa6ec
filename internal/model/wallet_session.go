package model

import (
	"time"

	"gorm.io/gorm"
)

type Chain string

const (
	ChainBitcoin  Chain = "bitcoin"
	ChainStarknet Chain = "starknet"
)

func (c Chain) IsValid() bool {
	return c == ChainBitcoin || c == ChainStarknet
}

// WalletSession is the persisted connection record, one per chain and profile.
type WalletSession struct {
	gorm.Model
	ProfileID     string    `gorm:"column:profile_id;type:varchar(255);not null;uniqueIndex:idx_wallet_sessions_profile_key"`
	Chain         Chain     `gorm:"column:chain;type:varchar(50);not null"`
	StorageKey    string    `gorm:"column:storage_key;type:varchar(100);not null;uniqueIndex:idx_wallet_sessions_profile_key"`
	Account       string    `gorm:"column:account;type:jsonb;not null"`
	ConnectedAt   time.Time `gorm:"column:connected_at;not null"`
	LastActivity  time.Time `gorm:"column:last_activity;not null"`
	SchemaVersion int       `gorm:"column:schema_version;not null;default:1"`
}

func (WalletSession) TableName() string {
	return "wallet_sessions"
}

type BitcoinAccount struct {
	PaymentAddress    string `json:"payment_address" validate:"required"`
	PaymentPublicKey  string `json:"payment_public_key" validate:"required,hexadecimal"`
	OrdinalsAddress   string `json:"ordinals_address,omitempty"`
	OrdinalsPublicKey string `json:"ordinals_public_key,omitempty" validate:"omitempty,hexadecimal"`
}

type StarknetAccount struct {
	Address   string `json:"address" validate:"required"`
	Connector string `json:"connector,omitempty"`
}
