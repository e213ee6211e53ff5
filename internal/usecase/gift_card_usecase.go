package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	repo "storefront/internal/repository"
)

type GiftCardUsecase struct {
	cards repo.GiftCardRepository
	clock Clock
}

func NewGiftCardUsecase(cards repo.GiftCardRepository, clock Clock) *GiftCardUsecase {
	return &GiftCardUsecase{cards: cards, clock: clock}
}

type GiftCardBalanceOutput struct {
	Code             string     `json:"code"`
	InitialAmount    float64    `json:"initialAmount"`
	RemainingBalance float64    `json:"remainingBalance"`
	IsActive         bool       `json:"isActive"`
	ExpiresAt        *time.Time `json:"expiresAt"`
	CreatedAt        time.Time  `json:"createdAt"`
}

type GiftCardValidateOutput struct {
	ID      string  `json:"id"`
	Code    string  `json:"code"`
	Balance float64 `json:"balance"`
}

func normalizeGiftCardCode(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return "", NewHTTPError(http.StatusBadRequest, "Gift card code is required")
	}
	return c, nil
}

func (u *GiftCardUsecase) Balance(ctx context.Context, code string) (GiftCardBalanceOutput, error) {
	c, err := normalizeGiftCardCode(code)
	if err != nil {
		return GiftCardBalanceOutput{}, err
	}

	card, err := u.cards.FindByCode(ctx, c)
	if isNotFound(err) {
		return GiftCardBalanceOutput{}, NewHTTPError(http.StatusNotFound, "Gift card not found")
	}
	if err != nil {
		slog.ErrorContext(ctx, "find gift card failed", "err", err)
		return GiftCardBalanceOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to check balance")
	}

	return GiftCardBalanceOutput{
		Code:             card.Code,
		InitialAmount:    card.InitialAmount.InexactFloat64(),
		RemainingBalance: card.RemainingBalance.InexactFloat64(),
		IsActive:         card.IsActive,
		ExpiresAt:        card.ExpiresAt,
		CreatedAt:        card.CreatedAt,
	}, nil
}

// Validate reports whether the card can pay right now.
func (u *GiftCardUsecase) Validate(ctx context.Context, code string) (GiftCardValidateOutput, error) {
	c, err := normalizeGiftCardCode(code)
	if err != nil {
		return GiftCardValidateOutput{}, err
	}

	card, err := u.cards.FindByCode(ctx, c)
	if isNotFound(err) {
		return GiftCardValidateOutput{}, NewHTTPError(http.StatusNotFound, "Invalid gift card code")
	}
	if err != nil {
		slog.ErrorContext(ctx, "find gift card failed", "err", err)
		return GiftCardValidateOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to validate gift card")
	}

	if !card.IsActive {
		return GiftCardValidateOutput{}, NewHTTPError(http.StatusBadRequest, "This gift card has been deactivated")
	}
	if card.ExpiresAt != nil && card.ExpiresAt.Before(u.clock.Now()) {
		return GiftCardValidateOutput{}, NewHTTPError(http.StatusBadRequest, "This gift card has expired")
	}
	if !card.RemainingBalance.IsPositive() {
		return GiftCardValidateOutput{}, NewHTTPError(http.StatusBadRequest, "This gift card has no remaining balance")
	}

	return GiftCardValidateOutput{
		ID:      card.ID,
		Code:    card.Code,
		Balance: card.RemainingBalance.InexactFloat64(),
	}, nil
}
