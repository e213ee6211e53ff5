package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type SubscribeUsecase struct {
	subscribers repo.SubscriberRepository
	clock       Clock
}

func NewSubscribeUsecase(subscribers repo.SubscriberRepository, clock Clock) *SubscribeUsecase {
	return &SubscribeUsecase{subscribers: subscribers, clock: clock}
}

// Subscribe registers an email for drop announcements. A storage failure is
// logged and still reported as success.
func (u *SubscribeUsecase) Subscribe(ctx context.Context, email string) error {
	e := normalizeEmail(email)
	if e == "" || !strings.Contains(e, "@") {
		return NewHTTPError(http.StatusBadRequest, "Valid email is required")
	}
	if err := u.subscribers.Upsert(ctx, model.DropSubscriber{Email: e, CreatedAt: u.clock.Now()}); err != nil {
		slog.ErrorContext(ctx, "save drop subscriber failed", "err", err)
	}
	return nil
}
