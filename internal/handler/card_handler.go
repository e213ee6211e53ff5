package handler

import (
	"net/http"
	"strconv"

	repo "storefront/internal/repository"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ポケモンカード検索・在庫・StockX価格同期
type CardHandler struct {
	search    *usecase.CardSearchUsecase
	inventory *usecase.CardInventoryUsecase
	prices    *usecase.PriceSyncUsecase
}

func NewCardHandler(search *usecase.CardSearchUsecase, inventory *usecase.CardInventoryUsecase, prices *usecase.PriceSyncUsecase) *CardHandler {
	return &CardHandler{search: search, inventory: inventory, prices: prices}
}

// 指定されたフィールドだけ更新する
type CardInventoryRequest struct {
	PricePaid    *decimal.Decimal `json:"price_paid"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
	Quantity     *int             `json:"quantity"`
	Condition    *string          `json:"condition"`
}

func (h *CardHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.GET("/pokemon/search", h.searchCards)

	admin := api.Group("/admin", g.Admin...)
	admin.PATCH("/pokemon-inventory/:id", h.updateInventory)
	admin.POST("/price-sync", h.syncPrices)
	admin.GET("/price-sync", h.priceStatus)
}

func (h *CardHandler) searchCards(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid page"})
		}
		page = p
	}

	out, err := h.search.Search(c.Request().Context(), c.QueryParam("q"), page)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CardHandler) updateInventory(c echo.Context) error {
	var req CardInventoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.inventory.Update(c.Request().Context(), adminID, c.Param("id"), repo.CardDetailPatch{
		PricePaid:    req.PricePaid,
		SellingPrice: req.SellingPrice,
		Quantity:     req.Quantity,
		Condition:    req.Condition,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CardHandler) syncPrices(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.prices.Sync(c.Request().Context(), adminID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CardHandler) priceStatus(c echo.Context) error {
	products, err := h.prices.Status(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"products": products})
}
