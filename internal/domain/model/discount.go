package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// 割引コード。codeは大文字で保存。
type Discount struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Type      DiscountType    `gorm:"type:varchar(16);not null" json:"type"`
	Value     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"value"`
	MinOrder  decimal.Decimal `gorm:"type:numeric(10,2);not null;default:0" json:"min_order"`
	MaxUses   *int            `json:"max_uses"`
	Uses      int             `gorm:"not null;default:0" json:"uses"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	ExpiresAt *time.Time      `json:"expires_at"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}
