package model

import "github.com/shopspring/decimal"

// カートのスナップショット1行
type CartItem struct {
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Image     *string         `json:"image"`
	Size      *string         `json:"size"`
	ProductID string          `json:"product_id"`
	VariantID *string         `json:"variant_id"`
}

func (i CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
