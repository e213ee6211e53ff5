package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// 放棄カートの同期と回収メールcron
type CartHandler struct {
	uc *usecase.AbandonedCartUsecase
}

func NewCartHandler(uc *usecase.AbandonedCartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AbandonedCartRequest struct {
	Email string            `json:"email"`
	Items []cartItemRequest `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

func (h *CartHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.PUT("/cart/abandoned", h.sync, g.Auth...)
	api.DELETE("/cart/abandoned", h.clear, g.Auth...)
	api.POST("/cart/abandoned/recovered", h.recovered, g.Auth...)

	cron := api.Group("/cron", g.Cron)
	cron.GET("/abandoned-carts", h.runRecovery)
}

func (h *CartHandler) sync(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req AbandonedCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	//書き込みはデバウンス後。ここではスケジュールするだけ
	if err := h.uc.Schedule(c.Request().Context(), usecase.CartSnapshot{
		UserID: userID,
		Email:  req.Email,
		Items:  toCartItems(req.Items),
		Total:  req.Total,
	}); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusAccepted, SuccessResponse{Success: true})
}

func (h *CartHandler) clear(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Clear(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *CartHandler) recovered(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.Recover(c.Request().Context(), userID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *CartHandler) runRecovery(c echo.Context) error {
	out, err := h.uc.RunRecovery(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
