package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/notify"
	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// テスト用ガード
// =====================

// X-Test-User / X-Test-Role ヘッダからコンテキストを作る
func fakeAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get("X-Test-User")
		if id == "" {
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
		}
		c.Set(middleware.CtxUserIDKey, id)
		c.Set(middleware.CtxUserRoleKey, model.Role(c.Request().Header.Get("X-Test-Role")))
		return next(c)
	}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

func testGuards() Guards {
	return Guards{
		Auth:      []echo.MiddlewareFunc{fakeAuth},
		OptAuth:   passThrough,
		Admin:     []echo.MiddlewareFunc{fakeAuth},
		Cron:      passThrough,
		RateLimit: func(string) echo.MiddlewareFunc { return passThrough },
	}
}

func newEcho(hs ...interface {
	RegisterRoutes(api *echo.Group, g Guards)
}) *echo.Echo {
	e := echo.New()
	api := e.Group("/api")
	for _, h := range hs {
		h.RegisterRoutes(api, testGuards())
	}
	return e
}

func doJSON(e *echo.Echo, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

// =====================
// モック
// =====================

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type staticID string

func (s staticID) NewID() string { return string(s) }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type DiscountRepoMock struct{ mock.Mock }

func (m *DiscountRepoMock) FindByCode(ctx context.Context, code string) (model.Discount, error) {
	args := m.Called(ctx, code)
	d, _ := args.Get(0).(model.Discount)
	return d, args.Error(1)
}

func (m *DiscountRepoMock) Create(ctx context.Context, d *model.Discount) error {
	panic("not used in handler tests")
}

func (m *DiscountRepoMock) IncrementUses(ctx context.Context, code string) error {
	panic("not used in handler tests")
}

type GiftCardRepoMock struct{ mock.Mock }

func (m *GiftCardRepoMock) FindByCode(ctx context.Context, code string) (model.GiftCard, error) {
	args := m.Called(ctx, code)
	g, _ := args.Get(0).(model.GiftCard)
	return g, args.Error(1)
}

type ContactRepoMock struct{ mock.Mock }

func (m *ContactRepoMock) Create(ctx context.Context, msg *model.ContactMessage) error {
	return m.Called(ctx, msg).Error(0)
}

type SubscriberRepoMock struct{ mock.Mock }

func (m *SubscriberRepoMock) Upsert(ctx context.Context, s model.DropSubscriber) error {
	return m.Called(ctx, s).Error(0)
}

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in handler tests")
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in handler tests")
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	panic("not used in handler tests")
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID string) error {
	panic("not used in handler tests")
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByID(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByTrackingNumber(ctx context.Context, tn string) (model.Order, error) {
	args := m.Called(ctx, tn)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) FindByStripePaymentID(ctx context.Context, paymentID string) (model.Order, bool, error) {
	panic("not used in handler tests")
}

func (m *OrderRepoMock) ListByCustomerID(ctx context.Context, customerID string) ([]model.Order, error) {
	args := m.Called(ctx, customerID)
	o, _ := args.Get(0).([]model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListByEmail(ctx context.Context, email string) ([]model.Order, error) {
	args := m.Called(ctx, email)
	o, _ := args.Get(0).([]model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order *model.Order) error {
	panic("not used in handler tests")
}

func (m *OrderRepoMock) UpdatePickupStatus(ctx context.Context, orderID string, status string, now time.Time) error {
	panic("not used in handler tests")
}

func (m *OrderRepoMock) ApplyTracking(ctx context.Context, orderID string, upd repo.TrackingUpdate) error {
	return m.Called(ctx, orderID, upd).Error(0)
}

type DispatcherMock struct {
	mu   sync.Mutex
	Sent []notify.Message
}

func (d *DispatcherMock) Dispatch(_ context.Context, m notify.Message) notify.Receipt {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Sent = append(d.Sent, m)
	return notify.Receipt{ID: "n-1", Accepted: true}
}

// =====================
// テスト
// =====================

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(config.Config{Version: "abc", GoEnv: "dev"})
	h.now = func() time.Time { return testNow }
	e := newEcho(h)

	rec := doJSON(e, http.MethodGet, "/api/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","version":"abc","timestamp":"2025-06-01T12:00:00Z","environment":"dev"}`, rec.Body.String())
}

func TestPromoHandler_ValidateDiscount(t *testing.T) {
	discounts := new(DiscountRepoMock)
	discounts.On("FindByCode", mock.Anything, "SAVE10").Return(model.Discount{
		Code:   "SAVE10",
		Type:   model.DiscountTypePercentage,
		Value:  decimal.NewFromInt(10),
		Active: true,
	}, nil)
	discounts.On("FindByCode", mock.Anything, "NOPE").Return(nil, repo.ErrNotFound)

	h := NewPromoHandler(usecase.NewDiscountUsecase(discounts, fixedClock{testNow}), usecase.NewGiftCardUsecase(new(GiftCardRepoMock), fixedClock{testNow}))
	e := newEcho(h)

	rec := doJSON(e, http.MethodPost, "/api/discounts/validate", `{"code":"save10","orderTotal":80}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"valid":true,"code":"SAVE10","type":"percentage","value":10,"discountAmount":8}`, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/api/discounts/validate", `{"code":"nope","orderTotal":80}`, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Invalid promo code"}`, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/api/discounts/validate", `{"code":`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPromoHandler_GiftCardBalance(t *testing.T) {
	cards := new(GiftCardRepoMock)
	cards.On("FindByCode", mock.Anything, "GC-1").Return(model.GiftCard{
		ID:               "gc-1",
		Code:             "GC-1",
		InitialAmount:    decimal.NewFromInt(50),
		RemainingBalance: decimal.NewFromInt(20),
		IsActive:         true,
		CreatedAt:        testNow,
	}, nil)
	cards.On("FindByCode", mock.Anything, "BROKEN").Return(nil, errors.New("db down"))

	h := NewPromoHandler(usecase.NewDiscountUsecase(new(DiscountRepoMock), fixedClock{testNow}), usecase.NewGiftCardUsecase(cards, fixedClock{testNow}))
	e := newEcho(h)

	rec := doJSON(e, http.MethodPost, "/api/gift-cards/balance", `{"code":" gc-1 "}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"remainingBalance":20`)

	rec = doJSON(e, http.MethodPost, "/api/gift-cards/balance", `{"code":"broken"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestContactHandler(t *testing.T) {
	contacts := new(ContactRepoMock)
	contacts.On("Create", mock.Anything, mock.AnythingOfType("*model.ContactMessage")).Return(nil)
	subs := new(SubscriberRepoMock)
	subs.On("Upsert", mock.Anything, model.DropSubscriber{Email: "fan@example.com", CreatedAt: testNow}).Return(nil)
	d := &DispatcherMock{}

	h := NewContactHandler(
		usecase.NewContactUsecase(contacts, d, staticID("c-1"), fixedClock{testNow}, "admin@example.com"),
		usecase.NewSubscribeUsecase(subs, fixedClock{testNow}),
	)
	e := newEcho(h)

	rec := doJSON(e, http.MethodPost, "/api/contact", `{"name":"Ash","email":"ash@example.com","subject":"Hi","message":"Do you buy cards?"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	require.Len(t, d.Sent, 1)
	assert.Equal(t, "admin@example.com", d.Sent[0].To)

	rec = doJSON(e, http.MethodPost, "/api/contact", `{"name":"","email":"ash@example.com","message":"x"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/drops/subscribe", `{"email":" Fan@Example.com "}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	subs.AssertExpectations(t)

	rec = doJSON(e, http.MethodPost, "/api/drops/subscribe", `{"email":"nope"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler(t *testing.T) {
	owner := "user-1"
	orders := new(OrderRepoMock)
	orders.On("FindByID", mock.Anything, "o-1").Return(model.Order{ID: "o-1", OrderNumber: "SEC-250601-0001", CustomerID: &owner}, nil)
	orders.On("ListByCustomerID", mock.Anything, "user-1").Return([]model.Order{{ID: "o-1"}}, nil)
	orders.On("ListByEmail", mock.Anything, "buyer@example.com").Return([]model.Order{{ID: "o-1"}}, nil)
	orders.On("ListByEmail", mock.Anything, "guest@example.com").Return([]model.Order{}, nil)
	users := new(UserRepoMock)
	users.On("FindByID", mock.Anything, "user-1").Return(&model.User{ID: "user-1", Email: "Buyer@Example.com"}, nil)

	e := newEcho(NewOrderHandler(usecase.NewOrderReadUsecase(orders, users)))
	customer := map[string]string{"X-Test-User": "user-1", "X-Test-Role": "customer"}
	other := map[string]string{"X-Test-User": "user-2", "X-Test-Role": "customer"}
	staff := map[string]string{"X-Test-User": "staff-1", "X-Test-Role": "staff"}

	tests := []struct {
		name    string
		path    string
		headers map[string]string
		status  int
	}{
		{"owner", "/api/orders/o-1", customer, http.StatusOK},
		{"other customer", "/api/orders/o-1", other, http.StatusNotFound},
		{"staff", "/api/orders/o-1", staff, http.StatusOK},
		{"anonymous", "/api/orders/o-1", nil, http.StatusUnauthorized},
		{"list mine", "/api/orders", customer, http.StatusOK},
		{"lookup own email", "/api/orders/lookup?email=buyer@example.com", customer, http.StatusOK},
		{"lookup defaults to own email", "/api/orders/lookup", customer, http.StatusOK},
		{"lookup someone else's email", "/api/orders/lookup?email=guest@example.com", customer, http.StatusForbidden},
		{"anonymous lookup", "/api/orders/lookup?email=guest@example.com", nil, http.StatusUnauthorized},
		{"staff lookup", "/api/orders/lookup?email=Guest@Example.com", staff, http.StatusOK},
		{"staff lookup without email", "/api/orders/lookup", staff, http.StatusBadRequest},
		{"admin detail", "/api/admin/orders/o-1", staff, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(e, http.MethodGet, tt.path, "", tt.headers)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("anonymous lookup exposes nothing", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/api/orders/lookup?email=buyer@example.com", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotContains(t, rec.Body.String(), "o-1")
	})
}

func TestWebhookHandler_Shippo(t *testing.T) {
	orders := new(OrderRepoMock)
	orders.On("FindByTrackingNumber", mock.Anything, "1Z999").Return(model.Order{ID: "o-1", Status: model.OrderStatusPaid}, nil)
	orders.On("ApplyTracking", mock.Anything, "o-1", mock.MatchedBy(func(u repo.TrackingUpdate) bool {
		return u.TrackingStatus == "TRANSIT" && u.Status != nil && *u.Status == model.OrderStatusShipped
	})).Return(nil)

	h := NewWebhookHandler(nil, usecase.NewShippingWebhookUsecase(orders, fixedClock{testNow}))
	e := newEcho(h)

	rec := doJSON(e, http.MethodPost, "/api/webhooks/shippo",
		`{"data":{"tracking_number":"1Z999","tracking_status":{"status":"TRANSIT"}}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	orders.AssertExpectations(t)

	rec = doJSON(e, http.MethodPost, "/api/webhooks/shippo", `{"data":{}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, writeError(c, errors.New("pq: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}
