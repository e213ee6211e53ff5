package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type DiscountRepository interface {
	//codeは大文字で渡す
	FindByCode(ctx context.Context, code string) (model.Discount, error)
	Create(ctx context.Context, d *model.Discount) error
	IncrementUses(ctx context.Context, code string) error
}

type GiftCardRepository interface {
	FindByCode(ctx context.Context, code string) (model.GiftCard, error)
}
