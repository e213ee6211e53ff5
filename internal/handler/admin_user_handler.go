package handler

import (
	"errors"
	"net/http"
	"strings"

	auth "storefront/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc *auth.ForceLogoutUsecase
}

func NewAdminUserHandler(uc *auth.ForceLogoutUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

func (h *AdminUserHandler) RegisterRoutes(api *echo.Group, g Guards) {
	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := api.Group("/admin/users", g.Admin...)
	admin.POST("/:id/force-logout", h.ForceLogout)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	userID := strings.TrimSpace(c.Param("id"))
	if userID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	res, err := h.uc.Execute(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: "user not found"})
		}
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}
