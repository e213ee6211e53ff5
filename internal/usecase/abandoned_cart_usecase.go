package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"storefront/internal/domain/model"
	"storefront/internal/mailtmpl"
	"storefront/internal/notify"
	repo "storefront/internal/repository"
)

const (
	recoveryCodePrefix = "SECURED10-"
	recoveryCodeChars  = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	recoveryCodeTTL    = 7 * 24 * time.Hour
	// デバウンス後の書き込みはリクエストと切り離して実行する
	cartWriteTimeout = 10 * time.Second
)

// cartsync.Debouncerが満たす
type CartScheduler interface {
	Schedule(key string, fn func()) bool
	CancelAndDo(key string, fn func()) bool
}

type AbandonedCartUsecase struct {
	tx        repo.TransactionManager
	carts     repo.AbandonedCartRepository
	discounts repo.DiscountRepository
	scheduler CartScheduler
	notifier  notify.Dispatcher
	idGen     IDGenerator
	clock     Clock
	randN     func(n int) int
}

func NewAbandonedCartUsecase(
	tx repo.TransactionManager,
	carts repo.AbandonedCartRepository,
	discounts repo.DiscountRepository,
	scheduler CartScheduler,
	notifier notify.Dispatcher,
	idGen IDGenerator,
	clock Clock,
) *AbandonedCartUsecase {
	return &AbandonedCartUsecase{
		tx:        tx,
		carts:     carts,
		discounts: discounts,
		scheduler: scheduler,
		notifier:  notifier,
		idGen:     idGen,
		clock:     clock,
		randN:     rand.IntN,
	}
}

type CartSnapshot struct {
	UserID string
	Email  string
	Items  []model.CartItem
	Total  decimal.Decimal
}

func (s CartSnapshot) total() decimal.Decimal {
	if s.Total.IsPositive() {
		return s.Total
	}
	sum := decimal.Zero
	for _, it := range s.Items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Schedule debounces the snapshot write for the user. An empty cart clears instead.
func (u *AbandonedCartUsecase) Schedule(ctx context.Context, s CartSnapshot) error {
	if s.UserID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if len(s.Items) == 0 {
		return u.Clear(ctx, s.UserID)
	}
	s.Email = normalizeEmail(s.Email)
	if s.Email == "" {
		return NewHTTPError(http.StatusBadRequest, "Email is required")
	}

	if !u.scheduler.Schedule(s.UserID, func() { u.syncDetached(s) }) {
		return NewHTTPError(http.StatusServiceUnavailable, "shutting down")
	}
	return nil
}

func (u *AbandonedCartUsecase) syncDetached(s CartSnapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), cartWriteTimeout)
	defer cancel()
	if err := u.Sync(ctx, s); err != nil {
		slog.ErrorContext(ctx, "abandoned cart sync failed", "user_id", s.UserID, "err", err)
	}
}

// Sync updates the user's latest unrecovered cart in place, or inserts one.
func (u *AbandonedCartUsecase) Sync(ctx context.Context, s CartSnapshot) error {
	now := u.clock.Now()
	total := s.total()
	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		cur, err := r.AbandonedCarts().FindLatestUnrecovered(ctx, s.UserID)
		if err == nil {
			return r.AbandonedCarts().UpdateSnapshot(ctx, cur.ID, s.Email, s.Items, total, now)
		}
		if !isNotFound(err) {
			return err
		}
		return r.AbandonedCarts().Create(ctx, &model.AbandonedCart{
			ID:        u.idGen.NewID(),
			UserID:    s.UserID,
			Email:     s.Email,
			CartItems: datatypes.JSONSlice[model.CartItem](s.Items),
			CartTotal: total,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
}

// Recover drops any pending write, waits out a write already running for
// the user, and then marks the user's carts recovered.
func (u *AbandonedCartUsecase) Recover(ctx context.Context, userID string) error {
	if userID == "" {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	var err error
	u.scheduler.CancelAndDo(userID, func() {
		_, err = u.carts.MarkRecovered(ctx, userID, u.clock.Now())
	})
	if err != nil {
		slog.ErrorContext(ctx, "mark cart recovered failed", "user_id", userID, "err", err)
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// カートを空にしたときも回収済み扱い
func (u *AbandonedCartUsecase) Clear(ctx context.Context, userID string) error {
	return u.Recover(ctx, userID)
}

type RecoveryResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Errors    int `json:"errors"`
}

// 1件のカートにつき1回の実行で送るのは1通まで
func recoveryStage(c model.AbandonedCart, now time.Time) int {
	age := now.Sub(c.CreatedAt)
	switch {
	case !c.Email1Sent && age >= time.Hour:
		return 1
	case c.Email1Sent && !c.Email2Sent && age >= 24*time.Hour:
		return 2
	case c.Email2Sent && !c.Email3Sent && age >= 72*time.Hour:
		return 3
	}
	return 0
}

// RunRecovery sends the 1h / 24h / 72h recovery emails. The third one carries
// a single-use 10% code that is stored as a real discount.
func (u *AbandonedCartUsecase) RunRecovery(ctx context.Context) (RecoveryResult, error) {
	now := u.clock.Now()
	carts, err := u.carts.ListForRecovery(ctx, now.Add(-time.Hour))
	if err != nil {
		slog.ErrorContext(ctx, "list abandoned carts failed", "err", err)
		return RecoveryResult{}, NewHTTPError(http.StatusInternalServerError, "Internal error")
	}

	res := RecoveryResult{Processed: len(carts)}
	for _, c := range carts {
		stage := recoveryStage(c, now)
		if stage == 0 {
			continue
		}

		code := c.DiscountCode
		if stage == 3 && code == "" {
			code, err = u.issueRecoveryCode(ctx, now)
			if err != nil {
				slog.ErrorContext(ctx, "issue recovery code failed", "cart_id", c.ID, "err", err)
				res.Errors++
				continue
			}
			// 送信に失敗しても次回は同じコードを使う
			if err := u.carts.SetDiscountCode(ctx, c.ID, code, now); err != nil {
				slog.ErrorContext(ctx, "save recovery code failed", "cart_id", c.ID, "err", err)
				res.Errors++
				continue
			}
		}

		total := c.CartTotal
		if !total.IsPositive() {
			total = CartSnapshot{Items: c.CartItems}.total()
		}
		rendered, err := mailtmpl.AbandonedCart(stage, c.CartItems, total, code)
		if err != nil {
			slog.ErrorContext(ctx, "render recovery email failed", "cart_id", c.ID, "err", err)
			res.Errors++
			continue
		}
		if rc := dispatchEmail(ctx, u.notifier, c.Email, "", "cart:"+c.ID, rendered); !rc.Accepted {
			res.Errors++
			continue
		}
		if err := u.carts.MarkEmailSent(ctx, c.ID, stage, code, now); err != nil {
			slog.ErrorContext(ctx, "mark recovery email failed", "cart_id", c.ID, "stage", stage, "err", err)
			res.Errors++
			continue
		}
		res.Sent++
	}
	return res, nil
}

func (u *AbandonedCartUsecase) recoveryCode() string {
	var b strings.Builder
	b.WriteString(recoveryCodePrefix)
	for range 6 {
		b.WriteByte(recoveryCodeChars[u.randN(len(recoveryCodeChars))])
	}
	return b.String()
}

func (u *AbandonedCartUsecase) issueRecoveryCode(ctx context.Context, now time.Time) (string, error) {
	maxUses := 1
	expires := now.Add(recoveryCodeTTL)
	var err error
	for range 3 {
		d := model.Discount{
			ID:        u.idGen.NewID(),
			Code:      u.recoveryCode(),
			Type:      model.DiscountTypePercentage,
			Value:     decimal.NewFromInt(10),
			MinOrder:  decimal.Zero,
			MaxUses:   &maxUses,
			Active:    true,
			ExpiresAt: &expires,
			CreatedAt: now,
		}
		if err = u.discounts.Create(ctx, &d); err == nil {
			return d.Code, nil
		}
		if !errors.Is(err, repo.ErrConflict) {
			return "", err
		}
	}
	return "", err
}
