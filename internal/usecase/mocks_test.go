package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"storefront/internal/domain/model"
	"storefront/internal/integrations/pokemontcg"
	"storefront/internal/integrations/stripepay"
	"storefront/internal/notify"
	repo "storefront/internal/repository"
)

// =====================
// TxManager / TxRepos mocks
// =====================

// TxManagerMockはWithinTxの中で渡すreposを固定してunitテストを回す
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	orders      repo.OrderRepository
	carts       repo.AbandonedCartRepository
	discounts   repo.DiscountRepository
	tickets     repo.TicketRepository
	products    repo.ProductRepository
	cardDetails repo.CardDetailRepository
	auditLogs   repo.AuditLogRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository                 { return r.orders }
func (r *TxReposMock) AbandonedCarts() repo.AbandonedCartRepository { return r.carts }
func (r *TxReposMock) Discounts() repo.DiscountRepository           { return r.discounts }
func (r *TxReposMock) Tickets() repo.TicketRepository               { return r.tickets }
func (r *TxReposMock) Products() repo.ProductRepository             { return r.products }
func (r *TxReposMock) CardDetails() repo.CardDetailRepository       { return r.cardDetails }
func (r *TxReposMock) AuditLogs() repo.AuditLogRepository           { return r.auditLogs }

func newTx(r *TxReposMock) *TxManagerMock {
	tx := &TxManagerMock{Repos: r}
	tx.On("WithinTx", mock.Anything).Return()
	return tx
}

// =====================
// Repository mocks
// =====================

type UserRepoMock struct{ mock.Mock }

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	panic("not used in usecase tests")
}

func (m *UserRepoMock) FindByID(ctx context.Context, userID string) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in usecase tests")
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	panic("not used in usecase tests")
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, userID string) error {
	panic("not used in usecase tests")
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
	args := m.Called(ctx, paymentID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Bool(1), args.Error(2)
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
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *OrderRepoMock) UpdatePickupStatus(ctx context.Context, orderID string, status string, now time.Time) error {
	args := m.Called(ctx, orderID, status, now)
	return args.Error(0)
}

func (m *OrderRepoMock) ApplyTracking(ctx context.Context, orderID string, upd repo.TrackingUpdate) error {
	args := m.Called(ctx, orderID, upd)
	return args.Error(0)
}

type CartRepoMock struct{ mock.Mock }

func (m *CartRepoMock) FindLatestUnrecovered(ctx context.Context, userID string) (model.AbandonedCart, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(model.AbandonedCart)
	return c, args.Error(1)
}

func (m *CartRepoMock) Create(ctx context.Context, cart *model.AbandonedCart) error {
	args := m.Called(ctx, cart)
	return args.Error(0)
}

func (m *CartRepoMock) UpdateSnapshot(ctx context.Context, cartID, email string, items []model.CartItem, total decimal.Decimal, now time.Time) error {
	args := m.Called(ctx, cartID, email, items, total, now)
	return args.Error(0)
}

func (m *CartRepoMock) MarkRecovered(ctx context.Context, userID string, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *CartRepoMock) ListForRecovery(ctx context.Context, createdBefore time.Time) ([]model.AbandonedCart, error) {
	args := m.Called(ctx, createdBefore)
	c, _ := args.Get(0).([]model.AbandonedCart)
	return c, args.Error(1)
}

func (m *CartRepoMock) MarkEmailSent(ctx context.Context, cartID string, stage int, code string, now time.Time) error {
	args := m.Called(ctx, cartID, stage, code, now)
	return args.Error(0)
}

func (m *CartRepoMock) SetDiscountCode(ctx context.Context, cartID, code string, now time.Time) error {
	args := m.Called(ctx, cartID, code, now)
	return args.Error(0)
}

type DiscountRepoMock struct{ mock.Mock }

func (m *DiscountRepoMock) FindByCode(ctx context.Context, code string) (model.Discount, error) {
	args := m.Called(ctx, code)
	d, _ := args.Get(0).(model.Discount)
	return d, args.Error(1)
}

func (m *DiscountRepoMock) Create(ctx context.Context, d *model.Discount) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *DiscountRepoMock) IncrementUses(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

type GiftCardRepoMock struct{ mock.Mock }

func (m *GiftCardRepoMock) FindByCode(ctx context.Context, code string) (model.GiftCard, error) {
	args := m.Called(ctx, code)
	g, _ := args.Get(0).(model.GiftCard)
	return g, args.Error(1)
}

type TicketRepoMock struct{ mock.Mock }

func (m *TicketRepoMock) Create(ctx context.Context, t *model.Ticket) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *TicketRepoMock) FindByID(ctx context.Context, id string) (model.Ticket, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(model.Ticket)
	return t, args.Error(1)
}

func (m *TicketRepoMock) ListByEmail(ctx context.Context, email string) ([]model.Ticket, error) {
	args := m.Called(ctx, email)
	t, _ := args.Get(0).([]model.Ticket)
	return t, args.Error(1)
}

func (m *TicketRepoMock) List(ctx context.Context, status string) ([]model.Ticket, error) {
	args := m.Called(ctx, status)
	t, _ := args.Get(0).([]model.Ticket)
	return t, args.Error(1)
}

func (m *TicketRepoMock) UpdateStatus(ctx context.Context, id string, status model.TicketStatus, now time.Time) error {
	args := m.Called(ctx, id, status, now)
	return args.Error(0)
}

func (m *TicketRepoMock) AddMessage(ctx context.Context, msg *model.TicketMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type ContactRepoMock struct{ mock.Mock }

func (m *ContactRepoMock) Create(ctx context.Context, msg *model.ContactMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	args := m.Called(ctx, category)
	p, _ := args.Get(0).([]model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) ListPriced(ctx context.Context, category string) ([]model.Product, error) {
	args := m.Called(ctx, category)
	p, _ := args.Get(0).([]model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) UpdateMarketPrice(ctx context.Context, id string, price decimal.Decimal, syncedAt time.Time) error {
	args := m.Called(ctx, id, price, syncedAt)
	return args.Error(0)
}

func (m *ProductRepoMock) UpdatePricing(ctx context.Context, id string, price decimal.Decimal, cost decimal.NullDecimal, now time.Time) error {
	args := m.Called(ctx, id, price, cost, now)
	return args.Error(0)
}

type CardDetailRepoMock struct{ mock.Mock }

func (m *CardDetailRepoMock) FindByID(ctx context.Context, id string) (model.PokemonCardDetail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(model.PokemonCardDetail)
	return d, args.Error(1)
}

func (m *CardDetailRepoMock) Update(ctx context.Context, id string, patch repo.CardDetailPatch, now time.Time) (model.PokemonCardDetail, error) {
	args := m.Called(ctx, id, patch, now)
	d, _ := args.Get(0).(model.PokemonCardDetail)
	return d, args.Error(1)
}

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *AuditRepoMock) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, f)
	l, _ := args.Get(0).([]model.AuditLog)
	return l, args.Error(1)
}

// =====================
// 外部連携 mocks
// =====================

// DispatcherMockは送られたメッセージを記録する。acceptedで受付可否を切り替える。
type DispatcherMock struct {
	mu       sync.Mutex
	accepted bool
	Sent     []notify.Message
}

func newDispatcher() *DispatcherMock { return &DispatcherMock{accepted: true} }

func (d *DispatcherMock) Dispatch(_ context.Context, m notify.Message) notify.Receipt {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Sent = append(d.Sent, m)
	return notify.Receipt{ID: fmt.Sprintf("n-%d", len(d.Sent)), Accepted: d.accepted}
}

func (d *DispatcherMock) messages() []notify.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Message(nil), d.Sent...)
}

type GatewayMock struct{ mock.Mock }

func (m *GatewayMock) CreatePaymentIntent(ctx context.Context, in stripepay.PaymentIntentInput) (stripepay.PaymentIntent, error) {
	args := m.Called(ctx, in)
	pi, _ := args.Get(0).(stripepay.PaymentIntent)
	return pi, args.Error(1)
}

type VerifierMock struct{ mock.Mock }

func (m *VerifierMock) ParseEvent(payload []byte, sig string) (stripepay.Event, error) {
	args := m.Called(payload, sig)
	ev, _ := args.Get(0).(stripepay.Event)
	return ev, args.Error(1)
}

type PriceSourceMock struct{ mock.Mock }

func (m *PriceSourceMock) SearchPrice(ctx context.Context, q string) (decimal.Decimal, bool, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(decimal.Decimal), args.Bool(1), args.Error(2)
}

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) Search(ctx context.Context, q string, page int) (pokemontcg.SearchResult, error) {
	args := m.Called(ctx, q, page)
	r, _ := args.Get(0).(pokemontcg.SearchResult)
	return r, args.Error(1)
}

// SchedulerMockは即時実行もできるデバウンサの代役
type SchedulerMock struct {
	mu        sync.Mutex
	pending   map[string]func()
	cancelled []string
	closed    bool
}

func newScheduler() *SchedulerMock { return &SchedulerMock{pending: map[string]func(){}} }

func (s *SchedulerMock) Schedule(key string, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.pending[key] = fn
	return true
}

func (s *SchedulerMock) CancelAndDo(key string, fn func()) bool {
	s.mu.Lock()
	s.cancelled = append(s.cancelled, key)
	_, ok := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	fn()
	return ok
}

func (s *SchedulerMock) fire(key string) {
	s.mu.Lock()
	fn := s.pending[key]
	delete(s.pending, key)
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// =====================
// Clock / ID
// =====================

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) NewID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%d", s.n)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type SubscriberRepoMock struct{ mock.Mock }

func (m *SubscriberRepoMock) Upsert(ctx context.Context, s model.DropSubscriber) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
