package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusProcessing        OrderStatus = "processing"
	OrderStatusShipped           OrderStatus = "shipped"
	OrderStatusDelivered         OrderStatus = "delivered"
	OrderStatusCancelled         OrderStatus = "cancelled"
	OrderStatusRefunded          OrderStatus = "refunded"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
)

type FulfillmentType string

const (
	FulfillmentShip   FulfillmentType = "ship"
	FulfillmentPickup FulfillmentType = "pickup"
)

// 受け取りステータス（店頭受け取りのみ）
const (
	PickupStatusPending  = "pending"
	PickupStatusReady    = "ready"
	PickupStatusPickedUp = "picked_up"
)

type SalesChannel string

const (
	SalesChannelPOS     SalesChannel = "pos"
	SalesChannelIOS     SalesChannel = "ios"
	SalesChannelWeb     SalesChannel = "web"
	SalesChannelEbay    SalesChannel = "ebay"
	SalesChannelWhatnot SalesChannel = "whatnot"
)

// 注文。物理削除はしない。
type Order struct {
	ID            string       `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber   string       `gorm:"type:varchar(32);not null;uniqueIndex" json:"order_number"`
	CustomerID    *string      `gorm:"type:uuid;index" json:"customer_id"`
	CustomerEmail string       `gorm:"type:varchar(255);not null;index" json:"customer_email"`
	CustomerPhone string       `gorm:"type:varchar(30)" json:"customer_phone,omitempty"`
	SalesChannel  SalesChannel `gorm:"type:varchar(20);not null;default:'web'" json:"sales_channel"`

	Items           datatypes.JSONSlice[OrderLine] `gorm:"type:jsonb;not null;default:'[]'" json:"items"`
	ShippingAddress datatypes.JSONType[Address]    `gorm:"type:jsonb;not null;default:'{}'" json:"shipping_address"`

	//金額は作成時に一度だけ確定
	Subtotal     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"subtotal"`
	Tax          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"tax"`
	ShippingCost decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"shipping_cost"`
	Discount     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"discount"`
	Total        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"total"`
	DiscountCode string          `gorm:"type:varchar(64)" json:"discount_code,omitempty"`

	Status          OrderStatus     `gorm:"type:varchar(32);not null;index" json:"status"`
	FulfillmentType FulfillmentType `gorm:"type:varchar(16);not null;default:'ship'" json:"fulfillment_type"`
	PickupStatus    *string         `gorm:"type:varchar(32)" json:"pickup_status"`
	PickupCode      *string         `gorm:"type:varchar(16)" json:"pickup_code"`

	TrackingNumber          *string        `gorm:"type:varchar(64);index" json:"tracking_number"`
	ShippingTrackingStatus  string         `gorm:"type:varchar(32)" json:"shipping_tracking_status,omitempty"`
	ShippingTrackingHistory datatypes.JSON `gorm:"type:jsonb" json:"shipping_tracking_history,omitempty"`
	ShippedAt               *time.Time     `json:"shipped_at"`
	DeliveredAt             *time.Time     `json:"delivered_at"`

	StripePaymentID     *string `gorm:"type:varchar(255);uniqueIndex" json:"stripe_payment_id"`
	StripePaymentStatus string  `gorm:"type:varchar(32)" json:"stripe_payment_status,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

// subtotal + tax + shipping - discount
func (o Order) ComputeTotal() decimal.Decimal {
	return o.Subtotal.Add(o.Tax).Add(o.ShippingCost).Sub(o.Discount)
}

// SMSの宛先。配送先の電話番号を優先する。
func (o Order) ContactPhone() string {
	if p := o.ShippingAddress.Data().Phone; p != "" {
		return p
	}
	return o.CustomerPhone
}
