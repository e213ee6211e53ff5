package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error
	if err != nil {
		return model.Order{}, mapErr(err, "find order")
	}
	return o, nil
}

func (r *OrderGormRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("tracking_number = ?", trackingNumber).First(&o).Error
	if err != nil {
		return model.Order{}, mapErr(err, "find order by tracking number")
	}
	return o, nil
}

func (r *OrderGormRepository) FindByStripePaymentID(ctx context.Context, paymentID string) (model.Order, bool, error) {
	var o model.Order
	err := r.db.WithContext(ctx).Where("stripe_payment_id = ?", paymentID).First(&o).Error
	if err != nil {
		err = mapErr(err, "find order by payment")
		if err == repo.ErrNotFound {
			return model.Order{}, false, nil
		}
		return model.Order{}, false, err
	}
	return o, true, nil
}

// 新しい順
func (r *OrderGormRepository) ListByCustomerID(ctx context.Context, customerID string) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, mapErr(err, "list orders by customer")
	}
	return items, nil
}

func (r *OrderGormRepository) ListByEmail(ctx context.Context, email string) ([]model.Order, error) {
	var items []model.Order
	err := r.db.WithContext(ctx).
		Where("customer_email = ?", email).
		Order("created_at desc").
		Find(&items).Error
	if err != nil {
		return []model.Order{}, mapErr(err, "list orders by email")
	}
	return items, nil
}

// order_number/stripe_payment_idが重複したらErrConflict。
// Tx内で呼ばれたときはsavepointになるので、失敗後も同じTxで再試行できる。
func (r *OrderGormRepository) Create(ctx context.Context, order *model.Order) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	if err != nil {
		return mapErr(err, "create order")
	}
	return nil
}

func (r *OrderGormRepository) UpdatePickupStatus(ctx context.Context, orderID string, pickupStatus string, now time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"pickup_status": pickupStatus,
			"updated_at":    now,
		})
	if res.Error != nil {
		return mapErr(res.Error, "update pickup status")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// nilの項目は触らない
func (r *OrderGormRepository) ApplyTracking(ctx context.Context, orderID string, upd repo.TrackingUpdate) error {
	cols := map[string]any{
		"shipping_tracking_status":  upd.TrackingStatus,
		"shipping_tracking_history": upd.History,
		"updated_at":                upd.UpdatedAt,
	}
	if upd.Status != nil {
		cols["status"] = *upd.Status
	}
	if upd.ShippedAt != nil {
		cols["shipped_at"] = *upd.ShippedAt
	}
	if upd.DeliveredAt != nil {
		cols["delivered_at"] = *upd.DeliveredAt
	}

	res := r.db.WithContext(ctx).Model(&model.Order{}).Where("id = ?", orderID).Updates(cols)
	if res.Error != nil {
		return mapErr(res.Error, "apply tracking")
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
