package usecase

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type DiscountUsecase struct {
	discounts repo.DiscountRepository
	clock     Clock
}

func NewDiscountUsecase(discounts repo.DiscountRepository, clock Clock) *DiscountUsecase {
	return &DiscountUsecase{discounts: discounts, clock: clock}
}

type ValidateDiscountInput struct {
	Code       string
	OrderTotal decimal.Decimal
}

type DiscountOutput struct {
	Valid          bool    `json:"valid"`
	Code           string  `json:"code"`
	Type           string  `json:"type"`
	Value          float64 `json:"value"`
	DiscountAmount float64 `json:"discountAmount"`
}

// DiscountAmount never exceeds total.
func DiscountAmount(d model.Discount, total decimal.Decimal) decimal.Decimal {
	if total.IsNegative() {
		total = decimal.Zero
	}
	var amt decimal.Decimal
	if d.Type == model.DiscountTypePercentage {
		amt = total.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	} else {
		amt = decimal.Min(d.Value, total)
	}
	return decimal.Min(amt, total)
}

// Validate checks a promo code against the order total. It never mutates the discount.
func (u *DiscountUsecase) Validate(ctx context.Context, in ValidateDiscountInput) (DiscountOutput, error) {
	code := strings.ToUpper(strings.TrimSpace(in.Code))
	if code == "" {
		return DiscountOutput{}, NewHTTPError(http.StatusBadRequest, "Promo code is required")
	}

	d, err := u.discounts.FindByCode(ctx, code)
	if isNotFound(err) {
		return DiscountOutput{}, NewHTTPError(http.StatusNotFound, "Invalid promo code")
	}
	if err != nil {
		slog.ErrorContext(ctx, "find discount failed", "err", err)
		return DiscountOutput{}, NewHTTPError(http.StatusInternalServerError, "Failed to validate promo code")
	}

	if !d.Active {
		return DiscountOutput{}, NewHTTPError(http.StatusBadRequest, "This promo code is no longer active")
	}
	if d.ExpiresAt != nil && d.ExpiresAt.Before(u.clock.Now()) {
		return DiscountOutput{}, NewHTTPError(http.StatusBadRequest, "This promo code has expired")
	}
	if d.MaxUses != nil && d.Uses >= *d.MaxUses {
		return DiscountOutput{}, NewHTTPError(http.StatusBadRequest, "This promo code has reached its usage limit")
	}

	total := in.OrderTotal
	if d.MinOrder.IsPositive() && total.LessThan(d.MinOrder) {
		return DiscountOutput{}, NewHTTPError(http.StatusBadRequest, "Minimum order of $"+d.MinOrder.StringFixed(2)+" required")
	}

	return DiscountOutput{
		Valid:          true,
		Code:           d.Code,
		Type:           string(d.Type),
		Value:          d.Value.InexactFloat64(),
		DiscountAmount: DiscountAmount(d, total).InexactFloat64(),
	}, nil
}
