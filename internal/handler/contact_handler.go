package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// お問い合わせフォームとドロップ通知の購読
type ContactHandler struct {
	contact   *usecase.ContactUsecase
	subscribe *usecase.SubscribeUsecase
}

func NewContactHandler(contact *usecase.ContactUsecase, subscribe *usecase.SubscribeUsecase) *ContactHandler {
	return &ContactHandler{contact: contact, subscribe: subscribe}
}

type SubscribeRequest struct {
	Email string `json:"email"`
}

func (h *ContactHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.POST("/contact", h.submit, g.RateLimit("contact"))
	api.POST("/drops/subscribe", h.subscribeDrops, g.RateLimit("subscribe"))
}

func (h *ContactHandler) submit(c echo.Context) error {
	var req usecase.ContactInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.contact.Submit(c.Request().Context(), req); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *ContactHandler) subscribeDrops(c echo.Context) error {
	var req SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.subscribe.Subscribe(c.Request().Context(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
