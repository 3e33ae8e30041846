package models

import (
	"time"

	"github.com/google/uuid"
)

type MarketplaceTransaction struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	SessionID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Action      string    `gorm:"type:varchar(32);not null"`
	TokenID     string    `gorm:"type:varchar(78);not null"`
	TxHash      string    `gorm:"type:varchar(66);not null;uniqueIndex"`
	Status      string    `gorm:"type:varchar(16);not null;index"`
	Error       *string   `gorm:"type:text"`
	BlockNumber *uint64
	ConfirmedAt *time.Time
	// LastCheckedAt is when the confirmation job last asked for a receipt
	LastCheckedAt *time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (MarketplaceTransaction) TableName() string {
	return "marketplace_transactions"
}
