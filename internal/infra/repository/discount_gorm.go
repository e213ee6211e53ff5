package repository

import (
	"context"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type DiscountGormRepository struct {
	db *gorm.DB
}

func NewDiscountGormRepository(db *gorm.DB) *DiscountGormRepository {
	return &DiscountGormRepository{db: db}
}

func (r *DiscountGormRepository) FindByCode(ctx context.Context, code string) (model.Discount, error) {
	var d model.Discount
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&d).Error; err != nil {
		return model.Discount{}, mapErr(err, "find discount")
	}
	return d, nil
}

func (r *DiscountGormRepository) Create(ctx context.Context, d *model.Discount) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return mapErr(err, "create discount")
	}
	return nil
}

// uses = uses + 1（読んでから書かない）
func (r *DiscountGormRepository) IncrementUses(ctx context.Context, code string) error {
	res := r.db.WithContext(ctx).
		Model(&model.Discount{}).
		Where("code = ?", code).
		UpdateColumn("uses", gorm.Expr("uses + ?", 1))
	if res.Error != nil {
		return mapErr(res.Error, "increment discount uses")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

type GiftCardGormRepository struct {
	db *gorm.DB
}

func NewGiftCardGormRepository(db *gorm.DB) *GiftCardGormRepository {
	return &GiftCardGormRepository{db: db}
}

func (r *GiftCardGormRepository) FindByCode(ctx context.Context, code string) (model.GiftCard, error) {
	var g model.GiftCard
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&g).Error; err != nil {
		return model.GiftCard{}, mapErr(err, "find gift card")
	}
	return g, nil
}
