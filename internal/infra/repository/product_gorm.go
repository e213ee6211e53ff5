package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// IDで商品を取得
func (r *ProductGormRepository) FindByID(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return model.Product{}, mapErr(err, "find product")
	}
	return p, nil
}

func (r *ProductGormRepository) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("category = ?", category).
		Order("name asc").
		Find(&products).Error
	if err != nil {
		return nil, mapErr(err, "list products")
	}
	return products, nil
}

func (r *ProductGormRepository) ListPriced(ctx context.Context, category string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).
		Where("category = ? AND market_price IS NOT NULL", category).
		Order("last_price_sync desc nulls last").
		Find(&products).Error
	if err != nil {
		return nil, mapErr(err, "list priced products")
	}
	return products, nil
}

func (r *ProductGormRepository) UpdateMarketPrice(ctx context.Context, id string, price decimal.Decimal, syncedAt time.Time) error {
	return r.update(ctx, id, map[string]any{
		"market_price":    price,
		"last_price_sync": syncedAt,
		"updated_at":      syncedAt,
	}, "update market price")
}

func (r *ProductGormRepository) UpdatePricing(ctx context.Context, id string, price decimal.Decimal, cost decimal.NullDecimal, now time.Time) error {
	return r.update(ctx, id, map[string]any{
		"price":      price,
		"cost":       cost,
		"updated_at": now,
	}, "update product pricing")
}

func (r *ProductGormRepository) update(ctx context.Context, id string, cols map[string]any, op string) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return mapErr(res.Error, op)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type CardDetailGormRepository struct {
	db *gorm.DB
}

func NewCardDetailGormRepository(db *gorm.DB) *CardDetailGormRepository {
	return &CardDetailGormRepository{db: db}
}

func (r *CardDetailGormRepository) FindByID(ctx context.Context, id string) (model.PokemonCardDetail, error) {
	var d model.PokemonCardDetail
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&d).Error; err != nil {
		return model.PokemonCardDetail{}, mapErr(err, "find card detail")
	}
	return d, nil
}

// 指定された項目だけ更新して、更新後の行を返す
func (r *CardDetailGormRepository) Update(ctx context.Context, id string, patch repo.CardDetailPatch, now time.Time) (model.PokemonCardDetail, error) {
	cols := map[string]any{"updated_at": now}
	if patch.PricePaid != nil {
		cols["price_paid"] = *patch.PricePaid
	}
	if patch.SellingPrice != nil {
		cols["selling_price"] = *patch.SellingPrice
	}
	if patch.Quantity != nil {
		cols["quantity"] = *patch.Quantity
	}
	if patch.Condition != nil {
		cols["condition"] = *patch.Condition
	}

	res := r.db.WithContext(ctx).Model(&model.PokemonCardDetail{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return model.PokemonCardDetail{}, mapErr(res.Error, "update card detail")
	}
	if res.RowsAffected == 0 {
		return model.PokemonCardDetail{}, repo.ErrNotFound
	}
	return r.FindByID(ctx, id)
}
