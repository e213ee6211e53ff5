package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

// ルート登録で使うミドルウェア一式。serverで組み立てて渡す。
type Guards struct {
	Auth      []echo.MiddlewareFunc // AuthJWT + TokenVersionGuard
	OptAuth   echo.MiddlewareFunc
	Admin     []echo.MiddlewareFunc // Auth + AdminRoleGuard
	Cron      echo.MiddlewareFunc
	RateLimit func(rule string) echo.MiddlewareFunc
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		if he.Status >= http.StatusInternalServerError {
			slog.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "status", he.Status, "error", he.Message)
		}
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	slog.ErrorContext(c.Request().Context(), "unhandled error",
		"method", c.Request().Method, "path", c.Path(), "error", err.Error())
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

func getUserIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func getUserRoleFromContext(c echo.Context) model.Role {
	role, _ := c.Get(middleware.CtxUserRoleKey).(model.Role)
	return role
}
