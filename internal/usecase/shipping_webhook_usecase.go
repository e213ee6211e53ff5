package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"gorm.io/datatypes"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

const (
	TrackingDelivered = "DELIVERED"
	TrackingTransit   = "TRANSIT"
)

type TrackingStatus struct {
	Status        string `json:"status"`
	StatusDetails string `json:"status_details"`
	StatusDate    string `json:"status_date"`
}

type TrackingEvent struct {
	TrackingNumber  string          `json:"tracking_number"`
	TrackingStatus  *TrackingStatus `json:"tracking_status"`
	TrackingHistory json.RawMessage `json:"tracking_history"`
}

// 配送業者のWebhook本文。dataの中でもトップレベルでも受け付ける。
type ShippingWebhookInput struct {
	Data *TrackingEvent `json:"data"`
	TrackingEvent
}

func (in ShippingWebhookInput) event() TrackingEvent {
	if in.Data != nil {
		return *in.Data
	}
	return in.TrackingEvent
}

type ShippingWebhookUsecase struct {
	orders repo.OrderRepository
	clock  Clock
}

func NewShippingWebhookUsecase(orders repo.OrderRepository, clock Clock) *ShippingWebhookUsecase {
	return &ShippingWebhookUsecase{orders: orders, clock: clock}
}

// Handle applies a tracking update. Status only moves forward: TRANSIT never
// rewrites a shipped or delivered order.
func (u *ShippingWebhookUsecase) Handle(ctx context.Context, in ShippingWebhookInput) error {
	ev := in.event()
	tn := strings.TrimSpace(ev.TrackingNumber)
	if tn == "" {
		return NewHTTPError(http.StatusBadRequest, "No tracking number")
	}

	order, err := u.orders.FindByTrackingNumber(ctx, tn)
	if isNotFound(err) {
		slog.InfoContext(ctx, "tracking update for unknown order", "tracking_number", tn)
		return nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "find order by tracking failed", "err", err)
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	now := u.clock.Now()
	status := ""
	eventTime := now
	if ev.TrackingStatus != nil {
		status = strings.ToUpper(strings.TrimSpace(ev.TrackingStatus.Status))
		if t, ok := parseStatusDate(ev.TrackingStatus.StatusDate); ok {
			eventTime = t
		}
	}

	upd := repo.TrackingUpdate{
		TrackingStatus: status,
		History:        order.ShippingTrackingHistory,
		UpdatedAt:      now,
	}
	if len(ev.TrackingHistory) > 0 && string(ev.TrackingHistory) != "null" {
		upd.History = datatypes.JSON(ev.TrackingHistory)
	}

	switch status {
	case TrackingDelivered:
		if order.Status != model.OrderStatusDelivered {
			s := model.OrderStatusDelivered
			upd.Status = &s
			upd.DeliveredAt = &eventTime
		}
	case TrackingTransit:
		if order.Status != model.OrderStatusShipped && order.Status != model.OrderStatusDelivered {
			s := model.OrderStatusShipped
			upd.Status = &s
			upd.ShippedAt = &eventTime
		}
	}

	if err := u.orders.ApplyTracking(ctx, order.ID, upd); err != nil {
		slog.ErrorContext(ctx, "apply tracking failed", "order_id", order.ID, "err", err)
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return nil
}

func parseStatusDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
