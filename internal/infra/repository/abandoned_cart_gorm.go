package repository

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AbandonedCartGormRepository struct {
	db *gorm.DB
}

func NewAbandonedCartGormRepository(db *gorm.DB) *AbandonedCartGormRepository {
	return &AbandonedCartGormRepository{db: db}
}

func (r *AbandonedCartGormRepository) FindLatestUnrecovered(ctx context.Context, userID string) (model.AbandonedCart, error) {
	var c model.AbandonedCart
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND recovered = ?", userID, false).
		Order("created_at desc").
		First(&c).Error
	if err != nil {
		return model.AbandonedCart{}, mapErr(err, "find abandoned cart")
	}
	return c, nil
}

func (r *AbandonedCartGormRepository) Create(ctx context.Context, cart *model.AbandonedCart) error {
	if err := r.db.WithContext(ctx).Create(cart).Error; err != nil {
		return mapErr(err, "create abandoned cart")
	}
	return nil
}

func (r *AbandonedCartGormRepository) UpdateSnapshot(ctx context.Context, cartID string, email string, items []model.CartItem, total decimal.Decimal, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.AbandonedCart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"email":      email,
			"cart_items": datatypes.NewJSONSlice(items),
			"cart_total": total,
			"updated_at": now,
		})
	if res.Error != nil {
		return mapErr(res.Error, "update abandoned cart")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *AbandonedCartGormRepository) MarkRecovered(ctx context.Context, userID string, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.AbandonedCart{}).
		Where("user_id = ? AND recovered = ?", userID, false).
		Updates(map[string]any{
			"recovered":  true,
			"updated_at": now,
		})
	if res.Error != nil {
		return 0, mapErr(res.Error, "mark cart recovered")
	}
	return res.RowsAffected, nil
}

// 古い順
func (r *AbandonedCartGormRepository) ListForRecovery(ctx context.Context, createdBefore time.Time) ([]model.AbandonedCart, error) {
	var carts []model.AbandonedCart
	err := r.db.WithContext(ctx).
		Where("recovered = ? AND created_at < ?", false, createdBefore).
		Order("created_at asc").
		Find(&carts).Error
	if err != nil {
		return nil, mapErr(err, "list carts for recovery")
	}
	return carts, nil
}

// stageは1〜3
func (r *AbandonedCartGormRepository) MarkEmailSent(ctx context.Context, cartID string, stage int, discountCode string, now time.Time) error {
	if stage < 1 || stage > 3 {
		return fmt.Errorf("invalid recovery stage %d", stage)
	}
	cols := map[string]any{
		fmt.Sprintf("email_%d_sent", stage):    true,
		fmt.Sprintf("email_%d_sent_at", stage): now,
		"updated_at":                           now,
	}
	if discountCode != "" {
		cols["discount_code"] = discountCode
	}

	res := r.db.WithContext(ctx).Model(&model.AbandonedCart{}).Where("id = ?", cartID).Updates(cols)
	if res.Error != nil {
		return mapErr(res.Error, "mark recovery email sent")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *AbandonedCartGormRepository) SetDiscountCode(ctx context.Context, cartID string, code string, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.AbandonedCart{}).
		Where("id = ?", cartID).
		Updates(map[string]any{
			"discount_code": code,
			"updated_at":    now,
		})
	if res.Error != nil {
		return mapErr(res.Error, "set cart discount code")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
