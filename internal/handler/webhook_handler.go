package handler

import (
	"io"
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// stripeの推奨上限
const maxWebhookBody = 65536

type WebhookHandler struct {
	payments *usecase.PaymentWebhookUsecase
	shipping *usecase.ShippingWebhookUsecase
}

func NewWebhookHandler(payments *usecase.PaymentWebhookUsecase, shipping *usecase.ShippingWebhookUsecase) *WebhookHandler {
	return &WebhookHandler{payments: payments, shipping: shipping}
}

func (h *WebhookHandler) RegisterRoutes(api *echo.Group, _ Guards) {
	api.POST("/webhooks/stripe", h.stripe)
	api.POST("/webhooks/shippo", h.shippo)
}

func (h *WebhookHandler) stripe(c echo.Context) error {
	//署名検証のため生のbodyを読む
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.payments.Handle(c.Request().Context(), payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

func (h *WebhookHandler) shippo(c echo.Context) error {
	var in usecase.ShippingWebhookInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.shipping.Handle(c.Request().Context(), in); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
