package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"storefront/internal/domain/model"
	"storefront/internal/integrations/stripepay"
	"storefront/internal/mailtmpl"
	"storefront/internal/notify"
	repo "storefront/internal/repository"
)

// 注文番号が衝突したときの再生成回数
const orderNumberAttempts = 3

type PaymentEventVerifier interface {
	ParseEvent(payload []byte, signature string) (stripepay.Event, error)
}

// AbandonedCartUsecaseが満たす
type CartRecoverer interface {
	Recover(ctx context.Context, userID string) error
}

type PaymentWebhookUsecase struct {
	verifier PaymentEventVerifier
	tx       repo.TransactionManager
	carts    CartRecoverer
	notifier notify.Dispatcher
	idGen    IDGenerator
	clock    Clock
	prefix   string
	randN    func(n int) int
}

func NewPaymentWebhookUsecase(
	verifier PaymentEventVerifier,
	tx repo.TransactionManager,
	carts CartRecoverer,
	notifier notify.Dispatcher,
	idGen IDGenerator,
	clock Clock,
	orderPrefix string,
) *PaymentWebhookUsecase {
	return &PaymentWebhookUsecase{
		verifier: verifier,
		tx:       tx,
		carts:    carts,
		notifier: notifier,
		idGen:    idGen,
		clock:    clock,
		prefix:   orderPrefix,
		randN:    rand.IntN,
	}
}

// PREFIX-YYMMDD-NNNN (NNNNは0001〜9999)
func (u *PaymentWebhookUsecase) orderNumber(now time.Time) string {
	return fmt.Sprintf("%s-%s-%04d", u.prefix, now.Format("060102"), u.randN(9999)+1)
}

// Handle records the order for a succeeded payment intent. Redelivered events
// for an already recorded payment are no-ops.
func (u *PaymentWebhookUsecase) Handle(ctx context.Context, payload []byte, signature string) error {
	ev, err := u.verifier.ParseEvent(payload, signature)
	if err != nil {
		slog.WarnContext(ctx, "stripe webhook signature rejected", "err", err)
		return NewHTTPError(http.StatusBadRequest, "Invalid signature")
	}
	if ev.Type != stripepay.EventPaymentIntentSucceeded || ev.Payment == nil {
		return nil
	}

	p := ev.Payment
	now := u.clock.Now()
	order := u.buildOrder(ctx, p, now)

	created := false
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		_, found, err := r.Orders().FindByStripePaymentID(ctx, p.PaymentIntentID)
		if err != nil {
			return err
		}
		if found {
			return nil
		}

		for attempt := 1; ; attempt++ {
			order.OrderNumber = u.orderNumber(now)
			err := r.Orders().Create(ctx, &order)
			if err == nil {
				break
			}
			if !errors.Is(err, repo.ErrConflict) {
				return err
			}
			// 同じ決済が並行して記録された場合
			if _, dup, ferr := r.Orders().FindByStripePaymentID(ctx, p.PaymentIntentID); ferr == nil && dup {
				return nil
			}
			if attempt >= orderNumberAttempts {
				return err
			}
		}

		if order.CustomerID != nil {
			if _, err := r.AbandonedCarts().MarkRecovered(ctx, *order.CustomerID, now); err != nil {
				return err
			}
		}
		if order.DiscountCode != "" {
			if err := r.Discounts().IncrementUses(ctx, order.DiscountCode); err != nil && !isNotFound(err) {
				return err
			}
		}
		created = true
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "record paid order failed", "payment_intent", p.PaymentIntentID, "err", err)
		return NewHTTPError(http.StatusInternalServerError, "Failed to record order")
	}
	if !created {
		slog.InfoContext(ctx, "payment already recorded", "payment_intent", p.PaymentIntentID)
		return nil
	}

	slog.InfoContext(ctx, "order recorded", "order_id", order.ID, "order_number", order.OrderNumber)
	// 保留中・実行中のカート書き込みを止めてから再度recoveredにする
	if order.CustomerID != nil {
		if err := u.carts.Recover(ctx, *order.CustomerID); err != nil {
			slog.WarnContext(ctx, "recover cart after payment failed", "user_id", *order.CustomerID, "err", err)
		}
	}
	if order.CustomerEmail != "" {
		if r, err := mailtmpl.OrderConfirmation(order); err != nil {
			slog.ErrorContext(ctx, "render order confirmation failed", "err", err)
		} else {
			dispatchEmail(ctx, u.notifier, order.CustomerEmail, "", "order:"+order.ID, r)
		}
	}
	return nil
}

func (u *PaymentWebhookUsecase) buildOrder(ctx context.Context, p *stripepay.SucceededPayment, now time.Time) model.Order {
	meta := p.Metadata
	total := decimal.New(p.AmountCents, -2)

	discount := decimal.Zero
	if v := meta["discountAmount"]; v != "" {
		if d, err := decimal.NewFromString(v); err == nil && d.IsPositive() {
			discount = d
		}
	}

	fulfillment := model.FulfillmentType(meta["fulfillmentType"])
	if fulfillment != model.FulfillmentPickup {
		fulfillment = model.FulfillmentShip
	}

	email := strings.TrimSpace(meta["email"])
	if email == "" {
		email = p.ReceiptEmail
	}

	var addr model.Address
	if v := meta["shippingAddress"]; v != "" {
		if err := json.Unmarshal([]byte(v), &addr); err != nil {
			slog.WarnContext(ctx, "bad shippingAddress metadata", "payment_intent", p.PaymentIntentID, "err", err)
		}
	}

	paymentID := p.PaymentIntentID
	o := model.Order{
		ID:              u.idGen.NewID(),
		CustomerEmail:   strings.ToLower(email),
		CustomerPhone:   addr.Phone,
		SalesChannel:    model.SalesChannelWeb,
		Items:           datatypes.JSONSlice[model.OrderLine]{},
		ShippingAddress: datatypes.NewJSONType(addr),
		// 内訳はクライアント計算なので合計から逆算する
		Subtotal:            total.Add(discount),
		Tax:                 decimal.Zero,
		ShippingCost:        decimal.Zero,
		Discount:            discount,
		DiscountCode:        strings.ToUpper(strings.TrimSpace(meta["discountCode"])),
		Status:              model.OrderStatusPaid,
		FulfillmentType:     fulfillment,
		StripePaymentID:     &paymentID,
		StripePaymentStatus: "succeeded",
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if fulfillment == model.FulfillmentPickup {
		s := model.PickupStatusPending
		o.PickupStatus = &s
	}
	if id := strings.TrimSpace(meta["customerId"]); id != "" {
		o.CustomerID = &id
	}
	o.Total = o.ComputeTotal()
	return o
}
