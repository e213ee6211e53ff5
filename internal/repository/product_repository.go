package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (model.Product, error)
	ListByCategory(ctx context.Context, category string) ([]model.Product, error)
	//market_priceがあるものを同期日時の新しい順
	ListPriced(ctx context.Context, category string) ([]model.Product, error)

	UpdateMarketPrice(ctx context.Context, id string, price decimal.Decimal, syncedAt time.Time) error
	UpdatePricing(ctx context.Context, id string, price decimal.Decimal, cost decimal.NullDecimal, now time.Time) error
}

// カード在庫の部分更新。nilは変更しない。
type CardDetailPatch struct {
	PricePaid    *decimal.Decimal
	SellingPrice *decimal.Decimal
	Quantity     *int
	Condition    *string
}

func (p CardDetailPatch) Empty() bool {
	return p.PricePaid == nil && p.SellingPrice == nil && p.Quantity == nil && p.Condition == nil
}

type CardDetailRepository interface {
	FindByID(ctx context.Context, id string) (model.PokemonCardDetail, error)
	Update(ctx context.Context, id string, patch CardDetailPatch, now time.Time) (model.PokemonCardDetail, error)
}
