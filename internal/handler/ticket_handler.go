package handler

import (
	"net/http"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type TicketHandler struct {
	uc *usecase.TicketUsecase
}

func NewTicketHandler(uc *usecase.TicketUsecase) *TicketHandler {
	return &TicketHandler{uc: uc}
}

type TicketMessageRequest struct {
	Message string `json:"message"`
	Email   string `json:"email"`
}

type TicketStatusRequest struct {
	Status string `json:"status"`
}

func (h *TicketHandler) RegisterRoutes(api *echo.Group, g Guards) {
	api.POST("/tickets", h.create, g.RateLimit("contact"))
	api.GET("/tickets", h.lookup)
	api.POST("/tickets/:id/messages", h.addMessage, g.RateLimit("contact"))

	admin := api.Group("/admin/tickets", g.Admin...)
	admin.GET("", h.list)
	admin.PATCH("/:id", h.updateStatus)
	admin.POST("/:id/reply", h.reply)
}

func (h *TicketHandler) create(c echo.Context) error {
	var req usecase.CreateTicketInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	t, err := h.uc.Create(c.Request().Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"success": true, "ticketId": t.ID})
}

func (h *TicketHandler) lookup(c echo.Context) error {
	tickets, err := h.uc.Lookup(c.Request().Context(), c.QueryParam("email"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}

func (h *TicketHandler) addMessage(c echo.Context) error {
	var req TicketMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	m, err := h.uc.AddCustomerMessage(c.Request().Context(), c.Param("id"), req.Email, req.Message)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *TicketHandler) list(c echo.Context) error {
	tickets, err := h.uc.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"tickets": tickets})
}

func (h *TicketHandler) updateStatus(c echo.Context) error {
	var req TicketStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	// 操作した管理者IDを取得（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.UpdateStatus(c.Request().Context(), adminID, c.Param("id"), req.Status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}

func (h *TicketHandler) reply(c echo.Context) error {
	var req TicketMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	if err := h.uc.Reply(c.Request().Context(), c.Param("id"), req.Message); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Success: true})
}
