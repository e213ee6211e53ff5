package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

type AbandonedCartRepository interface {
	//未回収のうち最新の1件
	FindLatestUnrecovered(ctx context.Context, userID string) (model.AbandonedCart, error)
	Create(ctx context.Context, cart *model.AbandonedCart) error
	UpdateSnapshot(ctx context.Context, cartID string, email string, items []model.CartItem, total decimal.Decimal, now time.Time) error
	//未回収をすべてrecoveredにする
	MarkRecovered(ctx context.Context, userID string, now time.Time) (int64, error)

	//回収メール対象（createdBeforeより古い未回収）
	ListForRecovery(ctx context.Context, createdBefore time.Time) ([]model.AbandonedCart, error)
	MarkEmailSent(ctx context.Context, cartID string, stage int, discountCode string, now time.Time) error
	//発行済みの割引コードをカートに残す（送信前）
	SetDiscountCode(ctx context.Context, cartID string, code string, now time.Time) error
}
