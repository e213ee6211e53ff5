package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderReadUsecase
}

func NewOrderHandler(uc *usecase.OrderReadUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(api *echo.Group, g Guards) {
	//lookupは:idより先に登録
	lookupChain := append(append([]echo.MiddlewareFunc{}, g.Auth...), g.RateLimit("order-lookup"))
	api.GET("/orders/lookup", h.lookup, lookupChain...)
	api.GET("/orders", h.list, g.Auth...)
	api.GET("/orders/:id", h.detail, g.Auth...)

	admin := api.Group("/admin/orders", g.Admin...)
	admin.GET("/:id", h.adminDetail)
}

func (h *OrderHandler) list(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListMine(c.Request().Context(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"orders": out})
}

func (h *OrderHandler) detail(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.Get(c.Request().Context(), userID, getUserRoleFromContext(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) lookup(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.LookupByEmail(c.Request().Context(), userID, getUserRoleFromContext(c), c.QueryParam("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"orders": out})
}

func (h *OrderHandler) adminDetail(c echo.Context) error {
	out, err := h.uc.AdminGet(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
