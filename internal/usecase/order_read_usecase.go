package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type OrderReadUsecase struct {
	orders repo.OrderRepository
	users  repo.UserRepository
}

func NewOrderReadUsecase(orders repo.OrderRepository, users repo.UserRepository) *OrderReadUsecase {
	return &OrderReadUsecase{orders: orders, users: users}
}

// 自分の注文（新しい順）
func (u *OrderReadUsecase) ListMine(ctx context.Context, customerID string) ([]model.Order, error) {
	if customerID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	orders, err := u.orders.ListByCustomerID(ctx, customerID)
	if err != nil {
		slog.ErrorContext(ctx, "list orders failed", "err", err)
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return orders, nil
}

// Get returns an order the viewer owns. Staff can read any order; for
// everyone else another customer's order does not exist.
func (u *OrderReadUsecase) Get(ctx context.Context, viewerID string, viewerRole model.Role, orderID string) (model.Order, error) {
	if viewerID == "" {
		return model.Order{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	o, err := u.orders.FindByID(ctx, orderID)
	if isNotFound(err) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "Order not found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "find order failed", "err", err)
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if viewerRole.IsAdmin() {
		return o, nil
	}
	if o.CustomerID == nil || *o.CustomerID != viewerID {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "Order not found")
	}
	return o, nil
}

// LookupByEmail lists orders placed under an email address. Customers only
// see their own account email (an empty query means that one); staff can
// look up any address.
func (u *OrderReadUsecase) LookupByEmail(ctx context.Context, viewerID string, viewerRole model.Role, email string) ([]model.Order, error) {
	if viewerID == "" {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	e := normalizeEmail(email)

	if !viewerRole.IsAdmin() {
		user, err := u.users.FindByID(ctx, viewerID)
		if err != nil {
			slog.ErrorContext(ctx, "find user failed", "err", err)
			return nil, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if user == nil {
			return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
		}
		own := normalizeEmail(user.Email)
		if e != "" && e != own {
			return nil, NewHTTPError(http.StatusForbidden, "forbidden")
		}
		e = own
	}

	if e == "" || !strings.Contains(e, "@") {
		return nil, NewHTTPError(http.StatusBadRequest, "Email is required")
	}
	orders, err := u.orders.ListByEmail(ctx, e)
	if err != nil {
		slog.ErrorContext(ctx, "lookup orders failed", "err", err)
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return orders, nil
}

func (u *OrderReadUsecase) AdminGet(ctx context.Context, orderID string) (model.Order, error) {
	o, err := u.orders.FindByID(ctx, orderID)
	if isNotFound(err) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "Order not found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "find order failed", "err", err)
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}
