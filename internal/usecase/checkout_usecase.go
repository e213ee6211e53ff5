package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
	"storefront/internal/integrations/stripepay"
)

// stripeのmetadataは1値500文字まで
const maxMetadataValue = 500

type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, in stripepay.PaymentIntentInput) (stripepay.PaymentIntent, error)
}

type CheckoutUsecase struct {
	gateway PaymentGateway
}

func NewCheckoutUsecase(gateway PaymentGateway) *CheckoutUsecase {
	return &CheckoutUsecase{gateway: gateway}
}

type CheckoutInput struct {
	Total           decimal.Decimal
	Email           string
	Items           []model.CartItem
	FulfillmentType string
	ShippingAddress *model.Address
	DiscountCode    string
	DiscountAmount  decimal.Decimal
	//ログイン中なら
	CustomerID string
}

type CheckoutOutput struct {
	ClientSecret string `json:"clientSecret"`
}

func (u *CheckoutUsecase) CreatePaymentIntent(ctx context.Context, in CheckoutInput) (CheckoutOutput, error) {
	// 1セント未満に丸まる合計も不正
	amountCents := in.Total.Shift(2).Round(0).IntPart()
	if amountCents <= 0 {
		return CheckoutOutput{}, NewHTTPError(http.StatusBadRequest, "Invalid order total")
	}

	fulfillment := model.FulfillmentType(strings.TrimSpace(in.FulfillmentType))
	if fulfillment != model.FulfillmentPickup {
		fulfillment = model.FulfillmentShip
	}

	meta := map[string]string{}
	if in.CustomerID != "" {
		meta["customerId"] = in.CustomerID
	}
	if code := strings.ToUpper(strings.TrimSpace(in.DiscountCode)); code != "" {
		meta["discountCode"] = code
		if in.DiscountAmount.IsPositive() {
			meta["discountAmount"] = in.DiscountAmount.StringFixed(2)
		}
	}
	// 受け取りSMSの宛先に使うので住所もWebhookへ渡す
	if in.ShippingAddress != nil {
		if b, err := json.Marshal(in.ShippingAddress); err == nil && len(b) <= maxMetadataValue {
			meta["shippingAddress"] = string(b)
		}
	}

	pi, err := u.gateway.CreatePaymentIntent(ctx, stripepay.PaymentIntentInput{
		AmountCents:     amountCents,
		Email:           strings.TrimSpace(in.Email),
		FulfillmentType: string(fulfillment),
		ItemCount:       len(in.Items),
		Metadata:        meta,
	})
	if err != nil {
		slog.ErrorContext(ctx, "create payment intent failed", "err", err)
		return CheckoutOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to create payment")
	}

	return CheckoutOutput{ClientSecret: pi.ClientSecret}, nil
}
