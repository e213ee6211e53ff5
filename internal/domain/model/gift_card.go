package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ギフトカード。残高は管理者調整以外では減るだけ。
type GiftCard struct {
	ID               string          `gorm:"type:uuid;primaryKey" json:"id"`
	Code             string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	InitialAmount    decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"initial_amount"`
	RemainingBalance decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"remaining_balance"`
	IsActive         bool            `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt        *time.Time      `json:"expires_at"`
	CreatedAt        time.Time       `gorm:"not null" json:"created_at"`
}
