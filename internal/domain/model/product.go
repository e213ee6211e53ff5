package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string              `gorm:"type:uuid;primaryKey" json:"id"`
	Name          string              `gorm:"type:varchar(255);not null" json:"name"`
	SKU           string              `gorm:"type:varchar(64);index" json:"sku"`
	Category      string              `gorm:"type:varchar(32);not null;index" json:"category"`
	Price         decimal.Decimal     `gorm:"type:numeric(10,2);not null" json:"price"`
	Cost          decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"cost"`
	MarketPrice   decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"market_price"`
	LastPriceSync *time.Time          `json:"last_price_sync"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null" json:"updated_at"`
}

const ProductCategorySneaker = "sneaker"

// ポケモンカードの在庫詳細
type PokemonCardDetail struct {
	ID           string              `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID    *string             `gorm:"type:uuid;index" json:"product_id"`
	CardID       string              `gorm:"type:varchar(64)" json:"card_id"`
	PricePaid    decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"price_paid"`
	SellingPrice decimal.NullDecimal `gorm:"type:numeric(10,2)" json:"selling_price"`
	Quantity     int                 `gorm:"not null;default:1" json:"quantity"`
	Condition    string              `gorm:"type:varchar(32)" json:"condition"`
	UpdatedAt    time.Time           `gorm:"not null" json:"updated_at"`
}
