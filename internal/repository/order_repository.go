package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"

	"gorm.io/datatypes"
)

// 配送業者Webhookからの更新内容。nilのフィールドは更新しない。
type TrackingUpdate struct {
	TrackingStatus string
	History        datatypes.JSON
	Status         *model.OrderStatus
	ShippedAt      *time.Time
	DeliveredAt    *time.Time
	UpdatedAt      time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID string) (model.Order, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (model.Order, error)
	//決済IDで検索（Webhookの重複配送対策）
	FindByStripePaymentID(ctx context.Context, paymentID string) (model.Order, bool, error)
	ListByCustomerID(ctx context.Context, customerID string) ([]model.Order, error)
	ListByEmail(ctx context.Context, email string) ([]model.Order, error)

	Create(ctx context.Context, order *model.Order) error
	UpdatePickupStatus(ctx context.Context, orderID string, pickupStatus string, now time.Time) error
	ApplyTracking(ctx context.Context, orderID string, upd TrackingUpdate) error
}
