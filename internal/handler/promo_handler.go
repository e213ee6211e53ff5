package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 割引コードとギフトカード
type PromoHandler struct {
	discounts *usecase.DiscountUsecase
	giftCards *usecase.GiftCardUsecase
}

func NewPromoHandler(discounts *usecase.DiscountUsecase, giftCards *usecase.GiftCardUsecase) *PromoHandler {
	return &PromoHandler{discounts: discounts, giftCards: giftCards}
}

type DiscountValidateRequest struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"orderTotal"`
}

type GiftCardRequest struct {
	Code string `json:"code"`
}

func (h *PromoHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.POST("/discounts/validate", h.validateDiscount, g.RateLimit("discount-validate"))
	api.POST("/gift-cards/balance", h.giftCardBalance, g.RateLimit("gc-balance"))
	api.POST("/gift-cards/validate", h.validateGiftCard, g.RateLimit("gc-validate"))
}

func (h *PromoHandler) validateDiscount(c echo.Context) error {
	var req DiscountValidateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.discounts.Validate(c.Request().Context(), usecase.ValidateDiscountInput{
		Code:       req.Code,
		OrderTotal: req.OrderTotal,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PromoHandler) giftCardBalance(c echo.Context) error {
	var req GiftCardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.giftCards.Balance(c.Request().Context(), req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *PromoHandler) validateGiftCard(c echo.Context) error {
	var req GiftCardRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.giftCards.Validate(c.Request().Context(), req.Code)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
