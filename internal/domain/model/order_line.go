package model

import "github.com/shopspring/decimal"

// 注文明細（ordersのitems列にJSONで保存）
type OrderLine struct {
	ProductID string          `json:"product_id"`
	VariantID *string         `json:"variant_id,omitempty"`
	Name      string          `json:"name"`
	SKU       *string         `json:"sku"`
	Size      *string         `json:"size"`
	Condition *string         `json:"condition,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
}
