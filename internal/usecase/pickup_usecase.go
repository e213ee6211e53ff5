package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	"storefront/internal/notify"
	repo "storefront/internal/repository"
)

type PickupUsecase struct {
	tx       repo.TransactionManager
	notifier notify.Dispatcher
	clock    Clock
}

func NewPickupUsecase(tx repo.TransactionManager, notifier notify.Dispatcher, clock Clock) *PickupUsecase {
	return &PickupUsecase{tx: tx, notifier: notifier, clock: clock}
}

type UpdatePickupInput struct {
	OrderID      string `json:"orderId"`
	PickupStatus string `json:"pickupStatus"`
}

type UpdatePickupOutput struct {
	Success      bool   `json:"success"`
	PickupStatus string `json:"pickupStatus"`
}

func pickupReadySMS(orderNumber string) string {
	return fmt.Sprintf("Hey! Your order #%s from Secured Tampa is ready for pickup! 🏪 Bring a valid photo ID. See you soon!", orderNumber)
}

// UpdateStatus stores any pickup status. "ready" sends one SMS attempt after
// the update commits; the outcome of that attempt never fails the call.
func (u *PickupUsecase) UpdateStatus(ctx context.Context, actorUserID string, in UpdatePickupInput) (UpdatePickupOutput, error) {
	orderID := strings.TrimSpace(in.OrderID)
	status := strings.TrimSpace(in.PickupStatus)
	if orderID == "" || status == "" {
		return UpdatePickupOutput{}, NewHTTPError(http.StatusBadRequest, "Missing orderId or pickupStatus")
	}

	now := u.clock.Now()
	var order model.Order
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := r.Orders().FindByID(ctx, orderID)
		if isNotFound(err) {
			return NewHTTPError(http.StatusNotFound, "Order not found")
		}
		if err != nil {
			return err
		}
		order = o

		if err := r.Orders().UpdatePickupStatus(ctx, orderID, status, now); err != nil {
			return err
		}

		before := ""
		if o.PickupStatus != nil {
			before = *o.PickupStatus
		}
		beforeJSON, _ := json.Marshal(map[string]string{"pickup_status": before})
		afterJSON, _ := json.Marshal(map[string]string{"pickup_status": status})
		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  actorUserID,
			Action:       model.AuditActionUpdatePickupStatus,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   orderID,
			BeforeJSON:   string(beforeJSON),
			AfterJSON:    string(afterJSON),
			CreatedAt:    now,
		})
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return UpdatePickupOutput{}, err
		}
		slog.ErrorContext(ctx, "update pickup status failed", "order_id", orderID, "err", err)
		return UpdatePickupOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to update pickup status")
	}

	if status == model.PickupStatusReady {
		u.notifyReady(ctx, order)
	}

	return UpdatePickupOutput{Success: true, PickupStatus: status}, nil
}

func (u *PickupUsecase) notifyReady(ctx context.Context, o model.Order) {
	phone := o.ContactPhone()
	if phone == "" {
		slog.WarnContext(ctx, "pickup ready but order has no phone", "order_id", o.ID)
		return
	}
	rc := u.notifier.Dispatch(ctx, notify.Message{
		Channel: notify.ChannelSMS,
		To:      phone,
		Body:    pickupReadySMS(o.OrderNumber),
		Ref:     "pickup:" + o.ID,
	})
	if !rc.Accepted {
		slog.WarnContext(ctx, "pickup sms not accepted", "order_id", o.ID)
	}
}
