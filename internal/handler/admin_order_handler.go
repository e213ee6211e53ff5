package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 店頭受け取りステータスと監査ログ
type AdminOrderHandler struct {
	pickup *usecase.PickupUsecase
	audit  *usecase.AuditLogUsecase
}

func NewAdminOrderHandler(pickup *usecase.PickupUsecase, audit *usecase.AuditLogUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{pickup: pickup, audit: audit}
}

func (h *AdminOrderHandler) RegisterRoutes(api *echo.Group, g Guards) {
	admin := api.Group("/admin", g.Admin...)
	admin.POST("/pickup", h.updatePickup)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) updatePickup(c echo.Context) error {
	var req usecase.UpdatePickupInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	// 操作した管理者IDを取得（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.pickup.UpdateStatus(c.Request().Context(), adminID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		offset = o
	}

	// from/toのRFC3339チェックはusecase側
	out, err := h.audit.List(c.Request().Context(), usecase.ListAuditLogsInput{
		ActorUserID:  c.QueryParam("actor_user_id"),
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		ResourceID:   c.QueryParam("resource_id"),
		From:         c.QueryParam("from"),
		To:           c.QueryParam("to"),
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"logs": out})
}
