package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	repo "storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func startPostgres(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "admin",
			"POSTGRES_PASSWORD": "admin",
			"POSTGRES_DB":       "storefront_test",
		},
		//initdb中に一度再起動するので2回目のreadyを待つ
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)

	dsn := "postgres://admin:admin@" + host + ":" + port.Port() + "/storefront_test?sslmode=disable"

	gdb, err := db.Connect(dsn)
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

func TestRepository_OrderFlow(t *testing.T) {
	gdb := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	txm := NewTxManagerGorm(gdb)
	orders := NewOrderGormRepository(gdb)

	pi := "pi_123"
	newOrder := func(number string) *model.Order {
		return &model.Order{
			ID:              uuid.NewString(),
			OrderNumber:     number,
			CustomerEmail:   "buyer@example.com",
			SalesChannel:    model.SalesChannelWeb,
			Items:           datatypes.NewJSONSlice([]model.OrderLine{{Name: "Charizard", Price: decimal.NewFromInt(100), Quantity: 1}}),
			ShippingAddress: datatypes.NewJSONType(model.Address{Phone: "+18135550100"}),
			Subtotal:        decimal.NewFromInt(100),
			Total:           decimal.NewFromInt(100),
			Status:          model.OrderStatusPaid,
			FulfillmentType: model.FulfillmentShip,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
	}

	// 同じTx内で番号衝突→再試行できること
	var created *model.Order
	err := txm.WithinTx(ctx, func(r repo.TxRepos) error {
		first := newOrder("SEC-250601-0001")
		first.StripePaymentID = &pi
		if err := r.Orders().Create(ctx, first); err != nil {
			return err
		}

		dup := newOrder("SEC-250601-0001")
		require.ErrorIs(t, r.Orders().Create(ctx, dup), repo.ErrConflict)

		created = newOrder("SEC-250601-0002")
		return r.Orders().Create(ctx, created)
	})
	require.NoError(t, err)

	got, found, err := orders.FindByStripePaymentID(ctx, pi)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "SEC-250601-0001", got.OrderNumber)
	require.Equal(t, "+18135550100", got.ContactPhone())

	_, found, err = orders.FindByStripePaymentID(ctx, "pi_missing")
	require.NoError(t, err)
	require.False(t, found)

	shipped := model.OrderStatusShipped
	require.NoError(t, orders.ApplyTracking(ctx, created.ID, repo.TrackingUpdate{
		TrackingStatus: "TRANSIT",
		History:        datatypes.JSON(`[{"status":"TRANSIT"}]`),
		Status:         &shipped,
		ShippedAt:      &now,
		UpdatedAt:      now,
	}))
	o, err := orders.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusShipped, o.Status)
	require.Equal(t, "TRANSIT", o.ShippingTrackingStatus)

	require.NoError(t, orders.UpdatePickupStatus(ctx, created.ID, model.PickupStatusReady, now))
	require.ErrorIs(t, orders.UpdatePickupStatus(ctx, uuid.NewString(), model.PickupStatusReady, now), repo.ErrNotFound)

	list, err := orders.ListByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestRepository_DiscountAndCartFlow(t *testing.T) {
	gdb := startPostgres(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	discounts := NewDiscountGormRepository(gdb)
	maxUses := 1
	require.NoError(t, discounts.Create(ctx, &model.Discount{
		ID:        uuid.NewString(),
		Code:      "SECURED10-ABCDEF",
		Type:      model.DiscountTypePercentage,
		Value:     decimal.NewFromInt(10),
		MaxUses:   &maxUses,
		Active:    true,
		CreatedAt: now,
	}))
	require.NoError(t, discounts.IncrementUses(ctx, "SECURED10-ABCDEF"))
	d, err := discounts.FindByCode(ctx, "SECURED10-ABCDEF")
	require.NoError(t, err)
	require.Equal(t, 1, d.Uses)
	require.ErrorIs(t, discounts.IncrementUses(ctx, "NOPE"), repo.ErrNotFound)

	carts := NewAbandonedCartGormRepository(gdb)
	userID := uuid.NewString()
	cart := &model.AbandonedCart{
		ID:        uuid.NewString(),
		UserID:    userID,
		Email:     "cart@example.com",
		CartItems: datatypes.NewJSONSlice([]model.CartItem{{Name: "Booster Box", Price: decimal.NewFromInt(160), Quantity: 1}}),
		CartTotal: decimal.NewFromInt(160),
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-2 * time.Hour),
	}
	require.NoError(t, carts.Create(ctx, cart))

	due, err := carts.ListForRecovery(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, carts.MarkEmailSent(ctx, cart.ID, 1, "", now))
	latest, err := carts.FindLatestUnrecovered(ctx, userID)
	require.NoError(t, err)
	require.True(t, latest.Email1Sent)

	require.NoError(t, carts.SetDiscountCode(ctx, cart.ID, "SECURED10-AAAAAA", now))
	latest, err = carts.FindLatestUnrecovered(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, "SECURED10-AAAAAA", latest.DiscountCode)
	require.ErrorIs(t, carts.SetDiscountCode(ctx, uuid.NewString(), "X", now), repo.ErrNotFound)

	n, err := carts.MarkRecovered(ctx, userID, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
	_, err = carts.FindLatestUnrecovered(ctx, userID)
	require.ErrorIs(t, err, repo.ErrNotFound)

	subs := NewSubscriberGormRepository(gdb)
	require.NoError(t, subs.Upsert(ctx, model.DropSubscriber{Email: "fan@example.com", CreatedAt: now}))
	require.NoError(t, subs.Upsert(ctx, model.DropSubscriber{Email: "fan@example.com", CreatedAt: now}))
}

func TestRepository_AuditLogs(t *testing.T) {
	gdb := startPostgres(t)
	ctx := context.Background()
	audits := NewAuditLogGormRepository(gdb)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	admin := uuid.NewString()

	for i, a := range []model.AuditAction{model.AuditActionUpdatePickupStatus, model.AuditActionUpdateTicketStatus, model.AuditActionUpdatePickupStatus} {
		require.NoError(t, audits.Create(ctx, model.AuditLog{
			ActorUserID:  admin,
			Action:       a,
			ResourceType: model.AuditResourceOrder,
			ResourceID:   "o-1",
			AfterJSON:    `{}`,
			CreatedAt:    now.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.Error(t, audits.Create(ctx, model.AuditLog{ActorUserID: admin, Action: "DROP_TABLE", ResourceType: model.AuditResourceOrder, ResourceID: "o-1", CreatedAt: now}))
	require.Error(t, audits.Create(ctx, model.AuditLog{ActorUserID: admin, Action: model.AuditActionSyncMarketPrice, ResourceType: "address", ResourceID: "p-1", CreatedAt: now}))

	action := model.AuditActionUpdatePickupStatus
	logs, err := audits.List(ctx, repo.AuditLogFilter{Action: &action})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.True(t, logs[0].CreatedAt.After(logs[1].CreatedAt))

	from := now.Add(30 * time.Second)
	logs, err = audits.List(ctx, repo.AuditLogFilter{ActorUserID: &admin, CreatedFrom: &from, Limit: 1})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, model.AuditActionUpdatePickupStatus, logs[0].Action)
}
